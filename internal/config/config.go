package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaSourceTopic string        `env:"KAFKA_SOURCE_TOPIC" envDefault:"raw-observations"`
	KafkaSinkTopic   string        `env:"KAFKA_SINK_TOPIC" envDefault:"dsg-datasets"`
	KafkaGroupID     string        `env:"KAFKA_GROUP_ID" envDefault:"storm-data-dsg"`
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	BatchSize          int           `env:"BATCH_SIZE" envDefault:"500"`
	BatchFlushInterval time.Duration `env:"BATCH_FLUSH_INTERVAL" envDefault:"2s"`

	Spatial Spatial

	// Memory guard. MemoryMaxUsedPercent 0 disables it.
	MemoryMaxUsedPercent float64 `env:"MEMORY_MAX_USED_PERCENT" envDefault:"90"`
	MemoryCheckInterval  int     `env:"MEMORY_CHECK_INTERVAL" envDefault:"1000"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Spatial is the axis and reference-system configuration handed to the
// classification engine.
type Spatial struct {
	LongitudePhenomena []string `env:"DSG_LONGITUDE_PHENOMENA" envDefault:"longitude,lon" envSeparator:","`
	LatitudePhenomena  []string `env:"DSG_LATITUDE_PHENOMENA" envDefault:"latitude,lat" envSeparator:","`
	VerticalPhenomena  []string `env:"DSG_VERTICAL_PHENOMENA" envDefault:"height,depth,altitude,elevation" envSeparator:","`
	AxisOrder          string   `env:"DSG_AXIS_ORDER" envDefault:"lonlat"`
	DefaultSRID        int      `env:"DSG_DEFAULT_SRID" envDefault:"4326"`
	NorthingFirstSRIDs []int    `env:"DSG_NORTHING_FIRST_SRIDS" envSeparator:","`
	EastingFirstSRIDs  []int    `env:"DSG_EASTING_FIRST_SRIDS" envSeparator:","`

	// Remote registry consulted for codes missing from the built-in table.
	// Empty CRSResolverURL disables it.
	CRSResolverURL     string        `env:"DSG_CRS_RESOLVER_URL"`
	CRSResolverTimeout time.Duration `env:"DSG_CRS_RESOLVER_TIMEOUT" envDefault:"5s"`
	CRSCacheSize       int           `env:"DSG_CRS_CACHE_SIZE" envDefault:"256"`
}

const maxBatchSize = 10000

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = trimAll(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		return fmt.Errorf("BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	if c.BatchFlushInterval <= 0 {
		return errors.New("BATCH_FLUSH_INTERVAL must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Spatial.AxisOrder)) {
	case "lonlat", "latlon":
	default:
		return fmt.Errorf("DSG_AXIS_ORDER must be lonlat or latlon, got %q", c.Spatial.AxisOrder)
	}
	if c.Spatial.DefaultSRID <= 0 {
		return errors.New("DSG_DEFAULT_SRID must be positive")
	}
	if c.Spatial.CRSResolverURL != "" {
		if c.Spatial.CRSResolverTimeout <= 0 {
			return errors.New("DSG_CRS_RESOLVER_TIMEOUT must be positive")
		}
		if c.Spatial.CRSCacheSize < 1 {
			return errors.New("DSG_CRS_CACHE_SIZE must be positive")
		}
	}
	if c.MemoryMaxUsedPercent < 0 || c.MemoryMaxUsedPercent >= 100 {
		return errors.New("MEMORY_MAX_USED_PERCENT must be in [0, 100)")
	}
	if c.MemoryCheckInterval <= 0 {
		return errors.New("MEMORY_CHECK_INTERVAL must be positive")
	}
	return nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
