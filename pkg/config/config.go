package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type TimeframeEntry struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval"`
	Period   string `yaml:"period"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		Output     string `yaml:"output"`
		BufferSize int    `yaml:"buffer_size"`
	} `yaml:"logging"`
	Store struct {
		Path string `yaml:"path"` // workbook file the tables persist to
	} `yaml:"store"`
	Timeframes []TimeframeEntry `yaml:"timeframes"`
	Indicators struct {
		StochWindow int `yaml:"stoch_window"`
		KSmooth     int `yaml:"k_smooth"`
		DSmooth     int `yaml:"d_smooth"`
		CCIPeriod   int `yaml:"cci_period"`
		DMIPeriod   int `yaml:"dmi_period"`
		SlopeWindow int `yaml:"slope_window"`
	} `yaml:"indicators"`
	MarketData struct {
		Provider     string        `yaml:"provider"` // "chartfeed" or "clickhouse"
		WebSocketURL string        `yaml:"websocket_url"`
		RESTURL      string        `yaml:"rest_url"` // optional, enables symbol listing from the feed
		APIKey       string        `yaml:"api_key"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`
	} `yaml:"marketdata"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		BarsTable        string        `yaml:"bars_table"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SignalsTopic string   `yaml:"signals_topic"`
		RunTopic     string   `yaml:"run_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			BatchSize    int           `yaml:"batch_size"`
			Linger       time.Duration `yaml:"linger"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		LockTTL  time.Duration `yaml:"lock_ttl"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SIGNALSYNTH_STORE"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Store.Path == "" {
		c.Store.Path = "trading_synthesis.xlsx"
	}
	if len(c.Timeframes) == 0 {
		c.Timeframes = []TimeframeEntry{
			{Name: "weekly", Interval: "1wk", Period: "3y"},
			{Name: "daily", Interval: "1d", Period: "1y"},
			{Name: "4h", Interval: "4h", Period: "90d"},
		}
	}
	if c.Indicators.StochWindow == 0 {
		c.Indicators.StochWindow = 55
	}
	if c.Indicators.KSmooth == 0 {
		c.Indicators.KSmooth = 55
	}
	if c.Indicators.DSmooth == 0 {
		c.Indicators.DSmooth = 36
	}
	if c.Indicators.CCIPeriod == 0 {
		c.Indicators.CCIPeriod = 20
	}
	if c.Indicators.DMIPeriod == 0 {
		c.Indicators.DMIPeriod = 14
	}
	if c.Indicators.SlopeWindow == 0 {
		c.Indicators.SlopeWindow = 10
	}
	if c.MarketData.Provider == "" {
		c.MarketData.Provider = "chartfeed"
	}
	if c.Redis.LockTTL == 0 {
		c.Redis.LockTTL = 10 * time.Minute
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	seen := map[string]bool{}
	for _, tf := range c.Timeframes {
		if tf.Name == "" || tf.Interval == "" || tf.Period == "" {
			return fmt.Errorf("timeframe entries need name, interval and period, got %+v", tf)
		}
		if seen[tf.Name] {
			return fmt.Errorf("duplicate timeframe %q", tf.Name)
		}
		seen[tf.Name] = true
	}
	switch c.MarketData.Provider {
	case "chartfeed":
		if c.MarketData.WebSocketURL == "" {
			return fmt.Errorf("marketdata.websocket_url is required for the chartfeed provider")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse provider")
		}
	default:
		return fmt.Errorf("marketdata.provider must be 'chartfeed' or 'clickhouse', got '%s'", c.MarketData.Provider)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
