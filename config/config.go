package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/angas/helen-go/helen"
	"github.com/angas/helen-go/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfigHelen struct {
	Username string
	Password string // Prefer HELEN_PASSWORD in .env over the config file
	// Delivery site to report on, 0 means the latest active contract
	DeliverySiteID int      `mapstructure:"delivery_site_id"`
	Tax            *float64 // VAT, default: 0.24
	Margin         *float64 // Seller margin in c/kWh added to every spot price, default: 0.38
	ApiUrl         *string  `mapstructure:"api_url"`
}

func (h AppConfigHelen) ClientConfig() helen.Config {
	cfg := helen.Config{Tax: h.Tax, Margin: h.Margin}
	if h.ApiUrl != nil {
		cfg.APIURL = *h.ApiUrl
	}
	return cfg
}

type AppConfigApi struct {
	Address string
	Port    int16
}

type AppConfigDatabase struct {
	Path string
	// How many days data should be stored in database before it gets purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 400
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigMqtt struct {
	Broker   string // Leave empty to disable publishing
	Port     int16
	Username string
	Password string
	// Prefix of the state topics, default: "helen"
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Broker != ""
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "helen"
	}
	return *m.TopicPrefix
}

type AppConfigReport struct {
	// Cron schedule for the month-to-date report, default: "0 8 * * *"
	RunAt *string `mapstructure:"run_at"`
	// Cron schedule for storing yesterday's hourly prices and consumption, default: "30 9 * * *"
	SyncAt *string `mapstructure:"sync_at"`
}

func (r AppConfigReport) GetRunAt() string {
	if r.RunAt == nil {
		return "0 8 * * *"
	}
	return *r.RunAt
}

func (r AppConfigReport) GetSyncAt() string {
	if r.SyncAt == nil {
		return "30 9 * * *"
	}
	return *r.SyncAt
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for database console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Helen    AppConfigHelen
	Api      AppConfigApi
	Database AppConfigDatabase
	Mqtt     AppConfigMqtt
	Report   AppConfigReport
	Logging  AppConfigLogging `mapstructure:"logging"`

	v *viper.Viper
}

// Secrets are usually only given as environment variables, which viper
// does not pick up on Unmarshal unless the keys are bound.
var envKeys = []string{
	"helen.username",
	"helen.password",
	"mqtt.username",
	"mqtt.password",
}

// Load reads the config file at path, or config/config.yaml when path is
// empty. A .env file in the working directory or next to the config file is
// loaded into the environment first, environment variables override the file.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("unable to bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*AppConfig, error) {
	c := AppConfig{v: v}
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	return &c, nil
}

func loadDotEnv(configPath string) error {
	files := []string{".env"}
	if configPath != "" {
		files = append(files, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	for _, f := range files {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to load %s: %w", f, err)
		}
	}
	return nil
}

// Watch calls onChange with the reloaded configuration every time the config
// file changes. Reloads that fail to unmarshal are logged and skipped.
func (c *AppConfig) Watch(onChange func(*AppConfig)) {
	logger := slog.Default().With("module", "config")
	c.v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed", slog.String("file", e.Name), slog.String("op", e.Op.String()))
		updated, err := unmarshal(c.v)
		if err != nil {
			logger.Error("failed to reload config", slog.Any("error", err))
			return
		}
		onChange(updated)
	})
	c.v.WatchConfig()
}
