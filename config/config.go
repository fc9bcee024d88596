package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "STOREDB_"

type Config struct {
	// Root is the directory every relative path below is resolved against.
	Root string `yaml:"root" env:"STOREDB_ROOT"`

	DatabasePath  string `yaml:"database_path" env:"STOREDB_DATABASE_PATH"`
	DataDir       string `yaml:"data_dir" env:"STOREDB_DATA_DIR"`
	IntakeDir     string `yaml:"intake_dir" env:"STOREDB_INTAKE_DIR"`
	ArchiveDir    string `yaml:"archive_dir" env:"STOREDB_ARCHIVE_DIR"`
	IntakePattern string `yaml:"intake_pattern" env:"STOREDB_INTAKE_PATTERN"`

	// Reference files, relative to DataDir
	ProductsFile string `yaml:"products_file" env:"STOREDB_PRODUCTS_FILE"`
	StatesFile   string `yaml:"states_file" env:"STOREDB_STATES_FILE"`
	ZipsFile     string `yaml:"zips_file" env:"STOREDB_ZIPS_FILE"`

	// Create provisions a missing store instead of failing.
	Create bool `yaml:"create" env:"STOREDB_CREATE"`

	LogLevel   string `yaml:"log_level" env:"STOREDB_LOG_LEVEL"`
	PrettyLogs bool   `yaml:"pretty_logs" env:"STOREDB_PRETTY_LOGS"`

	MaxOpenConns        int    `yaml:"max_open_conns" env:"STOREDB_MAX_OPEN_CONNS"`
	MigrationFolderPath string `yaml:"migration_folder_path" env:"STOREDB_MIGRATION_FOLDER_PATH"`

	// MetricsTextfile receives the prometheus text exposition after each run. Empty disables it.
	MetricsTextfile string `yaml:"metrics_textfile" env:"STOREDB_METRICS_TEXTFILE"`

	// Kafka is disabled while KafkaBrokers is empty.
	KafkaBrokers []string `yaml:"kafka_brokers" env:"STOREDB_KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"kafka_topic" env:"STOREDB_KAFKA_TOPIC"`

	// KafkaCompression is one of gzip, snappy, lz4 or zstd. Anything else sends uncompressed.
	KafkaCompression string `yaml:"kafka_compression" env:"STOREDB_KAFKA_COMPRESSION"`

	// Tracing is exported only when OTLPEndpoint is set.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"STOREDB_OTLP_ENDPOINT"`
	OTLPProtocol string `yaml:"otlp_protocol" env:"STOREDB_OTLP_PROTOCOL"`
}

// Default returns the layout of a store rooted in the working directory.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path, applies defaults, then .env and STOREDB_* overrides. A
// missing file is not an error; the defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// env-default is left off the tags so unset variables keep the YAML values
	if err := ectoenv.BindEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to bind %s environment: %w", EnvPrefix, err)
	}
	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join("db", "store.sqlite")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.IntakeDir == "" {
		cfg.IntakeDir = filepath.Join(cfg.DataDir, "to_load")
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = filepath.Join(cfg.DataDir, "loaded")
	}
	if cfg.IntakePattern == "" {
		cfg.IntakePattern = "Sales_*.csv"
	}
	if cfg.ProductsFile == "" {
		cfg.ProductsFile = "products.csv"
	}
	if cfg.StatesFile == "" {
		cfg.StatesFile = "states.csv"
	}
	if cfg.ZipsFile == "" {
		cfg.ZipsFile = "zips.csv"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 1
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "storedb-events"
	}
	brokers := cfg.KafkaBrokers[:0]
	for _, broker := range cfg.KafkaBrokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	cfg.KafkaBrokers = brokers
	if cfg.OTLPProtocol == "" {
		cfg.OTLPProtocol = "http"
	}
}

// Resolve joins a relative path onto Root.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

func (c *Config) DatabaseFile() string {
	return c.Resolve(c.DatabasePath)
}

func (c *Config) Intake() string {
	return c.Resolve(c.IntakeDir)
}

func (c *Config) Archive() string {
	return c.Resolve(c.ArchiveDir)
}

// ReferenceFile resolves one of the reference file names against DataDir.
func (c *Config) ReferenceFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return c.Resolve(filepath.Join(c.DataDir, name))
}
