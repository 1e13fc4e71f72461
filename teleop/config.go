package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const defaultCycleMS = 100

type Config struct {
	DeviceName string `env:"TELEOP_DEVICE_NAME" default:"Logitech G29 Driving Force Racing Wheel"`
	DevicePath string `env:"TELEOP_DEVICE_PATH"`
	ReplayPath string `env:"TELEOP_REPLAY"`
	LayoutPath string `env:"TELEOP_LAYOUT"`

	Interface string `env:"TELEOP_CAN_IFACE" default:"vcan0"`
	MapPath   string `env:"TELEOP_CAN_MAP" default:"config/can/teleop_map.csv"`
	FrameName string `env:"TELEOP_CAN_FRAME" default:"TELEOP_CMD"`

	UDPAddr string `env:"TELEOP_UDP_ADDR"`
	UDPTTL  int    `env:"TELEOP_UDP_TTL" default:"1"`

	// Republish the held state when no event arrived within a frame cycle
	KeepAlive bool `env:"TELEOP_KEEPALIVE" default:"true"`

	LogLevel string `env:"TELEOP_LOG_LEVEL" default:"info"`
	LogFile  string `env:"TELEOP_LOG_FILE" default:"teleop.log"`
}

// LoadConfig reads an optional .env file and then the environment
func LoadConfig() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return cfg, nil
}

// BindFlags registers command-line overrides using the loaded values as
// defaults.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DeviceName, "device-name", c.DeviceName, "Input device name to search for")
	fs.StringVar(&c.DevicePath, "device", c.DevicePath, "evdev path, skips the name search (e.g. /dev/input/event5)")
	fs.StringVar(&c.ReplayPath, "replay", c.ReplayPath, "Replay events from a JSON file instead of a device")
	fs.StringVar(&c.LayoutPath, "layout", c.LayoutPath, "Wheel layout JSON (default: built-in G29)")
	fs.StringVar(&c.Interface, "iface", c.Interface, "SocketCAN interface name, empty disables CAN")
	fs.StringVar(&c.MapPath, "map", c.MapPath, "Path to the CAN signal map CSV")
	fs.StringVar(&c.FrameName, "frame", c.FrameName, "Frame name to transmit")
	fs.StringVar(&c.UDPAddr, "udp", c.UDPAddr, "UDP destination host:port, empty disables UDP")
	fs.IntVar(&c.UDPTTL, "udp-ttl", c.UDPTTL, "Multicast TTL for UDP destinations")
	fs.BoolVar(&c.KeepAlive, "keepalive", c.KeepAlive, "Republish the held state every frame cycle")
	fs.StringVar(&c.LogLevel, "log", c.LogLevel, "trace|debug|info|warn|error|critical")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log file path")
}

func (c *Config) Validate() error {
	if c.Interface == "" && c.UDPAddr == "" {
		return errors.New("no publisher configured: set TELEOP_CAN_IFACE or TELEOP_UDP_ADDR")
	}
	if c.Interface != "" && (c.MapPath == "" || c.FrameName == "") {
		return errors.New("CAN publishing requires TELEOP_CAN_MAP and TELEOP_CAN_FRAME")
	}
	if c.ReplayPath != "" && c.DevicePath != "" {
		return errors.New("TELEOP_REPLAY and TELEOP_DEVICE_PATH are mutually exclusive")
	}
	if c.ReplayPath == "" && c.DevicePath == "" && c.DeviceName == "" {
		return errors.New("TELEOP_DEVICE_NAME is required when no device path or replay file is given")
	}
	if c.UDPTTL < 1 || c.UDPTTL > 255 {
		return fmt.Errorf("TELEOP_UDP_TTL must be between 1 and 255, got %d", c.UDPTTL)
	}
	if c.LogFile == "" {
		return errors.New("TELEOP_LOG_FILE is required")
	}
	return nil
}
