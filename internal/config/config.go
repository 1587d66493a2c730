package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/simaogato/fundledger-backend/internal/usecase/processor"
	"github.com/simaogato/fundledger-backend/internal/usecase/reversal"
)

// Backends a store can be resolved to
const (
	BackendPostgres = "postgres"
	BackendJSONL    = "jsonl"
	BackendMemory   = "memory"
)

// Config is the full configuration of the server and the CLI
type Config struct {
	Fund     FundConfig     `mapstructure:"fund"`
	Reversal ReversalConfig `mapstructure:"reversal"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// FundConfig holds the business parameters. Rates and prices are decimal strings.
type FundConfig struct {
	BootstrapPrice  string `mapstructure:"bootstrap_price"`
	HurdleRate      string `mapstructure:"hurdle_rate"`
	PerformanceRate string `mapstructure:"performance_rate"`
	OperatorName    string `mapstructure:"operator_name"`
	Currency        string `mapstructure:"currency"`
	PersistPolicy   string `mapstructure:"persist_policy"`
}

// ReversalConfig holds the undo/delete safety limits
type ReversalConfig struct {
	Window             int           `mapstructure:"window"`
	MatchTolerance     time.Duration `mapstructure:"match_tolerance"`
	CostBasisTolerance string        `mapstructure:"cost_basis_tolerance"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	Fallback      string `mapstructure:"fallback"`
	JSONLPath     string `mapstructure:"jsonl_path"`
	LoaderWorkers int    `mapstructure:"loader_workers"`
}

// DatabaseConfig mirrors the DB_* variables
type DatabaseConfig struct {
	ConnString  string        `mapstructure:"conn_str"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	User        string        `mapstructure:"user"`
	Password    string        `mapstructure:"password"`
	Name        string        `mapstructure:"name"`
	SSLMode     string        `mapstructure:"sslmode"`
	ConnTimeout time.Duration `mapstructure:"connect_timeout"`
}

// ServerConfig holds the network surface
type ServerConfig struct {
	GRPCAddr    string `mapstructure:"grpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	APIToken    string `mapstructure:"api_token"`
}

// LogConfig selects the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fund.bootstrap_price", "10000")
	v.SetDefault("fund.hurdle_rate", "0.06")
	v.SetDefault("fund.performance_rate", "0.20")
	v.SetDefault("fund.operator_name", "Fund Operator")
	v.SetDefault("fund.currency", "VND")
	v.SetDefault("fund.persist_policy", "strict")

	v.SetDefault("reversal.window", reversal.DefaultWindow)
	v.SetDefault("reversal.match_tolerance", time.Minute)
	v.SetDefault("reversal.cost_basis_tolerance", "0.01")

	v.SetDefault("storage.backend", BackendPostgres)
	v.SetDefault("storage.fallback", BackendJSONL)
	v.SetDefault("storage.jsonl_path", "data/fund.jsonl")
	v.SetDefault("storage.loader_workers", 4)

	v.SetDefault("database.conn_str", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "fundledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("server.api_token", "dev-token")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// legacyEnv keeps the plain DB_* and API_TOKEN variables working next to FUND_*
var legacyEnv = map[string]string{
	"database.conn_str": "DB_CONN_STR",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"server.api_token":  "API_TOKEN",
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. With an empty path,
// ./fundledger.yaml is used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "FUND_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("fundledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Processor(); err != nil {
		return err
	}
	for _, b := range []string{c.Storage.Backend, c.Storage.Fallback} {
		switch b {
		case BackendPostgres, BackendJSONL, BackendMemory, "":
		default:
			return fmt.Errorf("unknown storage backend %q", b)
		}
	}
	if c.Storage.Backend == "" {
		return errors.New("storage backend is required")
	}
	if c.Reversal.Window <= 0 {
		return fmt.Errorf("reversal window must be positive, got %d", c.Reversal.Window)
	}
	return nil
}

// Processor converts the fund section into processor parameters
func (c *Config) Processor() (processor.Config, error) {
	cfg := processor.DefaultConfig()

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"fund.bootstrap_price", c.Fund.BootstrapPrice, &cfg.BootstrapPrice},
		{"fund.hurdle_rate", c.Fund.HurdleRate, &cfg.HurdleRate},
		{"fund.performance_rate", c.Fund.PerformanceRate, &cfg.PerformanceRate},
		{"reversal.cost_basis_tolerance", c.Reversal.CostBasisTolerance, &cfg.Reversal.CostBasisTolerance},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return processor.Config{}, fmt.Errorf("invalid %s %q: %w", f.name, f.raw, err)
		}
		if d.IsNegative() {
			return processor.Config{}, fmt.Errorf("%s cannot be negative", f.name)
		}
		*f.dst = d
	}
	if !cfg.BootstrapPrice.IsPositive() {
		return processor.Config{}, errors.New("fund.bootstrap_price must be positive")
	}

	policy, err := processor.ParsePersistPolicy(c.Fund.PersistPolicy)
	if err != nil {
		return processor.Config{}, err
	}
	cfg.Persist = policy

	if c.Reversal.Window > 0 {
		cfg.Reversal.Window = c.Reversal.Window
	}
	if c.Reversal.MatchTolerance > 0 {
		cfg.Reversal.MatchTolerance = c.Reversal.MatchTolerance
	}
	return cfg, nil
}

// DatabaseConnString returns the explicit connection string, or builds one
// from the individual settings
func (c *Config) DatabaseConnString() string {
	if c.Database.ConnString != "" {
		return c.Database.ConnString
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode)
}
