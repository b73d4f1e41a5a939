package config

import "time"

// Config holds intercom device configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DeviceID   string `mapstructure:"device_id" yaml:"device_id"`
	DeviceName string `mapstructure:"device_name" yaml:"device_name"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	Timeouts Timeouts `mapstructure:"timeouts" yaml:"timeouts"`
	MQTT     MQTT     `mapstructure:"mqtt" yaml:"mqtt"`
	Call     Call     `mapstructure:"call" yaml:"call"`
	Auth     Auth     `mapstructure:"auth" yaml:"auth"`
}

// Timeouts groups the screen and actuator reversion delays.
type Timeouts struct {
	RingScreen time.Duration `mapstructure:"ring_screen" yaml:"ring_screen"`
	DoorScreen time.Duration `mapstructure:"door_screen" yaml:"door_screen"`
	CallScreen time.Duration `mapstructure:"call_screen" yaml:"call_screen"`
	DoorOpener time.Duration `mapstructure:"door_opener" yaml:"door_opener"`
}

// MQTT holds broker connection settings.
type MQTT struct {
	BrokerURL string `mapstructure:"broker_url" yaml:"broker_url"`
	ClientID  string `mapstructure:"client_id" yaml:"client_id"`
	Username  string `mapstructure:"username" yaml:"username"`
	Password  string `mapstructure:"password" yaml:"password"`
}

// Call holds call engine settings.
type Call struct {
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	APISecret   string `mapstructure:"api_secret" yaml:"api_secret"`
	WSURL       string `mapstructure:"ws_url" yaml:"ws_url"`
	RoomID      string `mapstructure:"room_id" yaml:"room_id"`
	OpenDoorCmd string `mapstructure:"open_door_cmd" yaml:"open_door_cmd"`
}

// Auth holds panel session token settings.
type Auth struct {
	Secret                 string        `mapstructure:"secret" yaml:"secret"`
	Issuer                 string        `mapstructure:"issuer" yaml:"issuer"`
	Audience               string        `mapstructure:"audience" yaml:"audience"`
	TTL                    time.Duration `mapstructure:"ttl" yaml:"ttl"`
	ProvisioningSecretHash string        `mapstructure:"provisioning_secret_hash" yaml:"provisioning_secret_hash"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DeviceID:          "door-1",
		DeviceName:        "Front Door",
		DatabasePath:      "intercom.db",
		Timeouts: Timeouts{
			RingScreen: 10 * time.Second,
			DoorScreen: 15 * time.Second,
			CallScreen: 5 * time.Second,
			DoorOpener: 1500 * time.Millisecond,
		},
		MQTT: MQTT{
			BrokerURL: "tcp://localhost:1883",
			ClientID:  "intercomd",
		},
		Call: Call{
			WSURL:       "ws://localhost:7880",
			RoomID:      "front-door",
			OpenDoorCmd: "open door",
		},
		Auth: Auth{
			Issuer:   "intercomd",
			Audience: "intercom-panel",
			TTL:      15 * time.Minute,
		},
	}
}
