package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDBridge  string
	MQTTClientIDWeb     string
	MQTTClientIDConsole string
	MQTTUsername        string
	MQTTPassword        string

	// Topics
	TopicCommands string
	TopicStatus   string

	// Serial links
	GPSSerialPort  string
	GPSBaudRate    int
	PeerSerialPort string
	PeerBaudRate   int

	// Timing (milliseconds)
	StatusPublishInterval int
	GPSStaleTimeout       int
	PollInterval          int
	ReconnectDelay        int
	PeerProbeTimeout      int

	// Link quality
	WiFiInterface string

	// Web Server
	WebServerPort int

	// Status history (optional)
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// Indicators (optional)
	StatusLEDPin          string
	DisplayEnabled        bool
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot modify it directly.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock for initialization,
//     read lock for Get().
//
// External code must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with every optional value filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientIDBridge:    "rover-bridge",
		MQTTClientIDWeb:       "rover-web",
		MQTTClientIDConsole:   "rover-console",
		TopicCommands:         "robot/commands/latest",
		TopicStatus:           "robot/status",
		GPSBaudRate:           9600,
		PeerBaudRate:          9600,
		StatusPublishInterval: 5000,
		GPSStaleTimeout:       15000,
		PollInterval:          50,
		ReconnectDelay:        5000,
		PeerProbeTimeout:      2000,
		WiFiInterface:         "wlan0",
		WebServerPort:         8080,
		ClickHouseDB:          "rover",
		ClickHouseUser:        "default",
		DisplayUpdateInterval: 1000,
	}
}

// Load reads the KEY=VALUE configuration file and returns a Config struct.
// Environment variables with the same key override the file, so credentials
// can stay out of it. Blank lines and # comments are ignored.
func Load(configPath string) (*Config, error) {
	values, err := godotenv.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return fromValues(values)
}

func fromValues(values map[string]string) (*Config, error) {
	cfg := Defaults()

	for key, value := range values {
		if env, ok := os.LookupEnv(key); ok {
			value = env
		}
		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	// Keys only present in the environment.
	for _, key := range knownKeys {
		if _, inFile := values[key]; inFile {
			continue
		}
		if env, ok := os.LookupEnv(key); ok {
			if err := cfg.setValue(key, env); err != nil {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var knownKeys = []string{
	"MQTT_BROKER", "MQTT_CLIENT_ID_BRIDGE", "MQTT_CLIENT_ID_WEB", "MQTT_CLIENT_ID_CONSOLE",
	"MQTT_USERNAME", "MQTT_PASSWORD",
	"TOPIC_COMMANDS", "TOPIC_STATUS",
	"GPS_SERIAL_PORT", "GPS_BAUD_RATE", "PEER_SERIAL_PORT", "PEER_BAUD_RATE",
	"STATUS_PUBLISH_INTERVAL", "GPS_STALE_TIMEOUT", "POLL_INTERVAL", "RECONNECT_DELAY", "PEER_PROBE_TIMEOUT",
	"WIFI_INTERFACE", "WEB_SERVER_PORT",
	"CLICKHOUSE_ADDR", "CLICKHOUSE_DB", "CLICKHOUSE_USER", "CLICKHOUSE_PASS",
	"STATUS_LED_PIN", "DISPLAY_ENABLED", "DISPLAY_UPDATE_INTERVAL",
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_USERNAME":
		c.MQTTUsername = value
	case "MQTT_PASSWORD":
		c.MQTTPassword = value

	// Topics
	case "TOPIC_COMMANDS":
		c.TopicCommands = value
	case "TOPIC_STATUS":
		c.TopicStatus = value

	// Serial links
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return setPositive(&c.GPSBaudRate, key, value)
	case "PEER_SERIAL_PORT":
		c.PeerSerialPort = value
	case "PEER_BAUD_RATE":
		return setPositive(&c.PeerBaudRate, key, value)

	// Timing
	case "STATUS_PUBLISH_INTERVAL":
		return setPositive(&c.StatusPublishInterval, key, value)
	case "GPS_STALE_TIMEOUT":
		return setPositive(&c.GPSStaleTimeout, key, value)
	case "POLL_INTERVAL":
		return setPositive(&c.PollInterval, key, value)
	case "RECONNECT_DELAY":
		return setPositive(&c.ReconnectDelay, key, value)
	case "PEER_PROBE_TIMEOUT":
		return setPositive(&c.PeerProbeTimeout, key, value)

	case "WIFI_INTERFACE":
		c.WiFiInterface = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port <= 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", port)
		}
		c.WebServerPort = port

	// Status history
	case "CLICKHOUSE_ADDR":
		c.ClickHouseAddr = value
	case "CLICKHOUSE_DB":
		c.ClickHouseDB = value
	case "CLICKHOUSE_USER":
		c.ClickHouseUser = value
	case "CLICKHOUSE_PASS":
		c.ClickHousePass = value

	// Indicators
	case "STATUS_LED_PIN":
		c.StatusLEDPin = value
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_UPDATE_INTERVAL":
		return setPositive(&c.DisplayUpdateInterval, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setPositive(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %d", key, v)
	}
	*dst = v
	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.PeerSerialPort == "" {
		return fmt.Errorf("PEER_SERIAL_PORT is required")
	}
	if c.TopicCommands == "" || c.TopicStatus == "" {
		return fmt.Errorf("TOPIC_COMMANDS and TOPIC_STATUS must not be empty")
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (c *Config) PublishInterval() time.Duration { return ms(c.StatusPublishInterval) }
func (c *Config) StaleAfter() time.Duration      { return ms(c.GPSStaleTimeout) }
func (c *Config) Poll() time.Duration            { return ms(c.PollInterval) }
func (c *Config) Reconnect() time.Duration       { return ms(c.ReconnectDelay) }
func (c *Config) ProbeTimeout() time.Duration    { return ms(c.PeerProbeTimeout) }
func (c *Config) DisplayRefresh() time.Duration  { return ms(c.DisplayUpdateInterval) }

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
