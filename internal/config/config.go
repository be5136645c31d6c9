package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the liveness monitor.
type Config struct {
	// ServerAddress is the gRPC address alive-server listens on and alive-ctl dials.
	ServerAddress string `yaml:"server_addr"`
	// HTTPAddress enables the HTTP status endpoint when set.
	HTTPAddress string `yaml:"http_addr"`
	// Timeout bounds each RPC issued by alive-ctl.
	Timeout time.Duration `yaml:"timeout"`
	// Timezone names the calendar used to decide whether a check-in happened "today".
	Timezone string `yaml:"timezone"`
	// PollInterval is how often the trigger loop looks for due wakes.
	PollInterval time.Duration `yaml:"poll_interval"`
	// LocationTimeout bounds the wait for the device location during an emergency.
	LocationTimeout time.Duration `yaml:"location_timeout"`
	// FreeTier disables premium-gated channels (SMS, WhatsApp).
	FreeTier bool `yaml:"free_tier"`
	// SendRate caps outbound channel sends per second; zero disables throttling.
	SendRate float64 `yaml:"send_rate"`

	Store    StoreConfig    `yaml:"store"`
	Email    EmailConfig    `yaml:"email"`
	Gateways GatewayConfig  `yaml:"gateways"`
	Location LocationConfig `yaml:"location"`
	Local    LocalConfig    `yaml:"local"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	// Driver is one of file, redis, sqlite, postgres.
	Driver string `yaml:"driver"`
	// Path is the directory (file) or database file (sqlite).
	Path string `yaml:"path"`
	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`
	// RedisAddress is host:port of the redis server.
	RedisAddress string `yaml:"redis_addr"`
	// RedisPassword is read from the environment only.
	RedisPassword string `yaml:"-" env:"STILL_ALIVE_REDIS_PASSWORD"`
}

// EmailConfig configures the SMTP relay used by the email channel.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	From     string `yaml:"from"`
	Password string `yaml:"-" env:"STILL_ALIVE_SMTP_PASSWORD"`
}

// GatewayConfig holds the HTTP endpoints of the messaging gateways.
type GatewayConfig struct {
	SMS      string `yaml:"sms"`
	WhatsApp string `yaml:"whatsapp"`
	Chat     string `yaml:"chat"`
	Token    string `yaml:"-" env:"STILL_ALIVE_GATEWAY_TOKEN"`
}

// LocationConfig configures where the device location comes from.
// A URL wins over the static coordinates.
type LocationConfig struct {
	URL       string  `yaml:"url"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// LocalConfig configures how on-device notifications are delivered.
type LocalConfig struct {
	// Driver is one of log, mqtt, fcm.
	Driver         string `yaml:"driver"`
	MQTTBroker     string `yaml:"mqtt_broker"`
	MQTTTopic      string `yaml:"mqtt_topic"`
	MQTTUsername   string `yaml:"mqtt_username"`
	MQTTPassword   string `yaml:"-" env:"STILL_ALIVE_MQTT_PASSWORD"`
	FCMCredentials string `yaml:"fcm_credentials"`
	FCMToken       string `yaml:"fcm_token"`
}

// Store drivers.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Local notification drivers.
const (
	LocalLog  = "log"
	LocalMQTT = "mqtt"
	LocalFCM  = "fcm"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "still-alive-settings.yaml"

	// DefaultEnvFilename is the optional dotenv file holding secrets.
	DefaultEnvFilename = ".env"

	// DefaultDataPath is the default directory of the file store.
	DefaultDataPath = "still-alive-data"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the default trigger loop cadence.
	DefaultPollInterval = time.Minute

	// DefaultLocationTimeout is the default bound on location retrieval.
	DefaultLocationTimeout = 10 * time.Second

	// DefaultMQTTTopic is the default topic for local notifications.
	DefaultMQTTTopic = "still-alive/local"

	// DefaultSMTPPort is the submission port.
	DefaultSMTPPort = 587

	// DefaultFilePermissions is the permission for config and data files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// ErrUnknownStoreDriver is returned for an unsupported store driver.
	ErrUnknownStoreDriver = errors.New("unknown store driver")
	// ErrUnknownLocalDriver is returned for an unsupported local notification driver.
	ErrUnknownLocalDriver = errors.New("unknown local notification driver")
)

// Load reads configuration from path, applies .env and environment overrides,
// and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), DefaultEnvFilename)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path. Secrets are never written.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults in place.
//
//nolint:cyclop // A flat list of checks reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.HTTPAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
			return fmt.Errorf("invalid http socket: %w", err)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	if settings.LocationTimeout <= 0 {
		settings.LocationTimeout = DefaultLocationTimeout
	}

	if _, err := settings.CalendarLocation(); err != nil {
		return err
	}

	if err := validateStore(&settings.Store); err != nil {
		return err
	}

	if err := validateLocal(&settings.Local); err != nil {
		return err
	}

	if settings.Email.Host != "" && settings.Email.Port == 0 {
		settings.Email.Port = DefaultSMTPPort
	}

	for _, gateway := range []string{settings.Gateways.SMS, settings.Gateways.WhatsApp, settings.Gateways.Chat, settings.Location.URL} {
		if gateway == "" {
			continue
		}

		if _, err := url.ParseRequestURI(gateway); err != nil {
			return fmt.Errorf("invalid gateway URI %q: %w", gateway, err)
		}
	}

	return nil
}

// CalendarLocation resolves the configured timezone.
func (c *Config) CalendarLocation() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}

		return loc, nil
	}
}

func validateStore(store *StoreConfig) error {
	if store.Driver == "" {
		store.Driver = StoreFile
	}

	switch store.Driver {
	case StoreFile:
		if store.Path == "" {
			store.Path = DefaultDataPath
		}
	case StoreSQLite:
		if store.Path == "" {
			store.Path = DefaultDataPath + ".db"
		}
	case StoreRedis:
		if store.RedisAddress == "" {
			return errors.New("store.redis_addr must be provided for the redis driver")
		}
	case StorePostgres:
		if store.DSN == "" {
			return errors.New("store.dsn must be provided for the postgres driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreDriver, store.Driver)
	}

	return nil
}

func validateLocal(local *LocalConfig) error {
	if local.Driver == "" {
		local.Driver = LocalLog
	}

	switch local.Driver {
	case LocalLog:
	case LocalMQTT:
		if local.MQTTBroker == "" {
			return errors.New("local.mqtt_broker must be provided for the mqtt driver")
		}

		if local.MQTTTopic == "" {
			local.MQTTTopic = DefaultMQTTTopic
		}
	case LocalFCM:
		if local.FCMCredentials == "" || local.FCMToken == "" {
			return errors.New("local.fcm_credentials and local.fcm_token must be provided for the fcm driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLocalDriver, local.Driver)
	}

	return nil
}
