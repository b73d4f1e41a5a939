package display

import "github.com/openintercom/intercomd/internal/callengine"

// Screen identifies one of the panel's single-screen views.
type Screen string

const (
	ScreenLoading Screen = "loading"
	ScreenAuth    Screen = "authentication"
	ScreenIntro   Screen = "intro"
	ScreenCall    Screen = "call"
	ScreenRing    Screen = "ring"
	ScreenDoor    Screen = "door"
	ScreenError   Screen = "error"
)

// Display is the rendering collaborator. Calls are fire-and-forget: the
// orchestration core never blocks on the panel.
type Display interface {
	ShowScreen(screen Screen)
	SetCallFeeds(feeds []callengine.Feed)
	SetCallButton(active bool)
}

// Nop is a Display that discards every command. Used when no panel is
// connected and in tests.
type Nop struct{}

func (Nop) ShowScreen(Screen)              {}
func (Nop) SetCallFeeds([]callengine.Feed) {}
func (Nop) SetCallButton(bool)             {}

var _ Display = Nop{}
