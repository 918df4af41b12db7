package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors. The process must exit before any
// network call when Load or station loading returns an error wrapping it.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Influx   InfluxConfig    `yaml:"influxdb"`
	Postgres PostgresConfig  `yaml:"postgres"`
	Sink     SinkConfig      `yaml:"sink"`
	Kafka    KafkaConfig     `yaml:"kafka"`
	Tracking TrackingConfig  `yaml:"tracking"`
	Stations []StationConfig `yaml:"stations"`
}

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type PostgresConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port" validate:"gte=0,lte=65535"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"dbname"`
	SSLMode       string `yaml:"sslmode"`
	MigrationsDir string `yaml:"migrations_dir"`
}

func (p PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type SinkConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=influx postgres"`
	BatchSize int    `yaml:"batch_size" validate:"gt=0"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether the optional Kafka point stream is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TrackingConfig struct {
	Window time.Duration `yaml:"-" validate:"gt=0"`
}

func (t *TrackingConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Window string `yaml:"window"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Window == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.Window)
	if err != nil {
		return fmt.Errorf("tracking.window: %v", err)
	}
	t.Window = d
	return nil
}

// StationConfig accepts either a bare station id string or a mapping with
// id and name, matching both historical config layouts.
type StationConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func (s *StationConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.ID)
	case yaml.MappingNode:
		type plain StationConfig
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*s = StationConfig(p)
		return nil
	default:
		return fmt.Errorf("station entry must be a string or a mapping (line %d)", node.Line)
	}
}

// Load reads the YAML configuration file, applies environment overrides and
// validates the result. A .env file is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalid, path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Influx: InfluxConfig{
			URL: "http://localhost:8086",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			User:          "dwd_user",
			DBName:        "dwd",
			SSLMode:       "disable",
			MigrationsDir: "migrations",
		},
		Sink: SinkConfig{
			Backend:   "influx",
			BatchSize: 5000,
		},
		Tracking: TrackingConfig{
			Window: 10 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Influx.URL = getEnv("INFLUX_URL", cfg.Influx.URL)
	cfg.Influx.Token = getEnv("INFLUX_TOKEN", cfg.Influx.Token)
	cfg.Influx.Org = getEnv("INFLUX_ORG", cfg.Influx.Org)
	cfg.Influx.Bucket = getEnv("INFLUX_BUCKET", cfg.Influx.Bucket)

	cfg.Postgres.Host = getEnv("PG_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = getEnvAsInt("PG_PORT", cfg.Postgres.Port)
	cfg.Postgres.User = getEnv("PG_USER", cfg.Postgres.User)
	cfg.Postgres.Password = getEnv("PG_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.DBName = getEnv("PG_DBNAME", cfg.Postgres.DBName)
	cfg.Postgres.SSLMode = getEnv("PG_SSLMODE", cfg.Postgres.SSLMode)

	cfg.Sink.Backend = getEnv("SINK_BACKEND", cfg.Sink.Backend)
	cfg.Sink.BatchSize = getEnvAsInt("SINK_BATCH_SIZE", cfg.Sink.BatchSize)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Tracking.Window = getEnvAsDuration("TRACKING_WINDOW", cfg.Tracking.Window)
}

// Validate checks structural constraints plus the backend-specific ones that
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch c.Sink.Backend {
	case "influx":
		if c.Influx.URL == "" || c.Influx.Org == "" || c.Influx.Bucket == "" {
			return fmt.Errorf("%w: influx backend requires url, org and bucket", ErrInvalid)
		}
	case "postgres":
		if c.Postgres.Host == "" || c.Postgres.DBName == "" {
			return fmt.Errorf("%w: postgres backend requires host and dbname", ErrInvalid)
		}
	}

	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("%w: kafka brokers configured without a topic", ErrInvalid)
	}

	if len(c.Stations) == 0 {
		return fmt.Errorf("%w: no stations configured", ErrInvalid)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
