package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/emission-rollup/internal/db"
)

// EnvPrefix is the environment variable prefix, e.g. ROLLUP_STORE_DRIVER.
const EnvPrefix = "ROLLUP"

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Fetcher FetcherConfig `yaml:"fetcher" mapstructure:"fetcher"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the snapshot database.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// CatalogConfig points at a stage catalog YAML. Empty uses the embedded one.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReportConfig configures bucket and summary projections.
type ReportConfig struct {
	Ranges        []string `yaml:"ranges" mapstructure:"ranges"`
	UnknownPolicy string   `yaml:"unknown_policy" mapstructure:"unknown_policy"`
	Shards        int      `yaml:"shards" mapstructure:"shards"`
	// DeskFile is an optional CSV of family id to desk (mesa) used by the
	// desk dimension instead of the card's own desk field.
	DeskFile string `yaml:"desk_file" mapstructure:"desk_file"`
}

// FetcherConfig configures export parsing.
type FetcherConfig struct {
	Delimiter string        `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding  string        `yaml:"encoding" mapstructure:"encoding"`
	Sheet     string        `yaml:"sheet" mapstructure:"sheet"`
	Columns   ColumnsConfig `yaml:"columns" mapstructure:"columns"`
}

// ColumnsConfig names the export header for each card field.
type ColumnsConfig struct {
	RecordID    string `yaml:"record_id" mapstructure:"record_id"`
	FamilyID    string `yaml:"family_id" mapstructure:"family_id"`
	RequesterID string `yaml:"requester_id" mapstructure:"requester_id"`
	PipelineID  string `yaml:"pipeline_id" mapstructure:"pipeline_id"`
	StageCode   string `yaml:"stage_code" mapstructure:"stage_code"`
	CreatedAt   string `yaml:"created_at" mapstructure:"created_at"`
	Assignee    string `yaml:"assignee" mapstructure:"assignee"`
	Desk        string `yaml:"desk" mapstructure:"desk"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "emission-rollup.db")
	v.SetDefault("catalog.path", "")
	v.SetDefault("report.ranges", []string{"0-49", "50-99", "100"})
	v.SetDefault("report.unknown_policy", "separate")
	v.SetDefault("report.shards", 1)
	v.SetDefault("report.desk_file", "")
	v.SetDefault("fetcher.delimiter", ",")
	v.SetDefault("fetcher.encoding", "")
	v.SetDefault("fetcher.sheet", "")
	v.SetDefault("fetcher.columns.record_id", "ID")
	v.SetDefault("fetcher.columns.family_id", "FAMILY_ID")
	v.SetDefault("fetcher.columns.requester_id", "REQUESTER_ID")
	v.SetDefault("fetcher.columns.pipeline_id", "CATEGORY_ID")
	v.SetDefault("fetcher.columns.stage_code", "STAGE_ID")
	v.SetDefault("fetcher.columns.created_at", "CREATED_TIME")
	v.SetDefault("fetcher.columns.assignee", "ASSIGNED_BY")
	v.SetDefault("fetcher.columns.desk", "DESK")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Every problem is
// reported, not just the first.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Report.Shards < 1 || c.Report.Shards > 64 {
		problems = append(problems, "report.shards must be between 1 and 64")
	}
	switch strings.ToLower(c.Report.UnknownPolicy) {
	case "", "separate", "fold":
	default:
		problems = append(problems, "report.unknown_policy must be separate or fold")
	}

	switch mode {
	case "import":
		if len([]rune(c.Fetcher.Delimiter)) > 1 {
			problems = append(problems, "fetcher.delimiter must be a single character")
		}
		if c.Fetcher.Columns.StageCode == "" {
			problems = append(problems, "fetcher.columns.stage_code is required")
		}
	case "report":
		if len(c.Report.Ranges) == 0 {
			problems = append(problems, "report.ranges must not be empty")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DelimiterRune returns the configured CSV delimiter rune, ',' when unset.
func (f FetcherConfig) DelimiterRune() rune {
	for _, r := range f.Delimiter {
		return r
	}
	return ','
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
