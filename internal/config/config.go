package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Splunkbase SplunkbaseConfig `yaml:"splunkbase" mapstructure:"splunkbase"`
	Upgrade    UpgradeConfig    `yaml:"upgrade" mapstructure:"upgrade"`
	Platform   PlatformConfig   `yaml:"platform" mapstructure:"platform"`
	Enrich     StageConfig      `yaml:"enrich" mapstructure:"enrich"`
	Download   StageConfig      `yaml:"download" mapstructure:"download"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SplunkbaseConfig holds catalog API settings and credentials.
type SplunkbaseConfig struct {
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	Username           string  `yaml:"username" mapstructure:"username"`
	Password           string  `yaml:"password" mapstructure:"password"`
	CredentialsFile    string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries         int     `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond  float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	InsecureSkipVerify bool    `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// UpgradeConfig sets the platform versions the plan is computed for.
type UpgradeConfig struct {
	TargetMajor    string `yaml:"target_major" mapstructure:"target_major"`
	ReferenceMajor string `yaml:"reference_major" mapstructure:"reference_major"`
}

// PlatformConfig lists the deployment roles and where their files live.
type PlatformConfig struct {
	Roles   []string `yaml:"roles" mapstructure:"roles"`
	WorkDir string   `yaml:"work_dir" mapstructure:"work_dir"`
}

// StageConfig tunes a network-bound stage.
type StageConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RolePaths is the file set used by one deployment role.
type RolePaths struct {
	Role           string
	Inventory      string
	Enriched       string
	DownloadDir    string
	DownloadReport string
	ExtractDir     string
	PlanDir        string
	Workbook       string
}

// Credentials are the Splunkbase account used for downloads.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SPLUNKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("splunkbase.base_url", "https://splunkbase.splunk.com")
	v.SetDefault("splunkbase.username", "")
	v.SetDefault("splunkbase.password", "")
	v.SetDefault("splunkbase.credentials_file", "login.json")
	v.SetDefault("splunkbase.timeout_secs", 60)
	v.SetDefault("splunkbase.max_retries", 3)
	v.SetDefault("splunkbase.requests_per_second", 5)
	v.SetDefault("splunkbase.insecure_skip_verify", false)
	v.SetDefault("upgrade.target_major", "9")
	v.SetDefault("upgrade.reference_major", "8")
	v.SetDefault("platform.roles", []string{"indexer", "searchhead"})
	v.SetDefault("platform.work_dir", ".")
	v.SetDefault("enrich.concurrency", 1)
	v.SetDefault("download.concurrency", 1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "splunk-upgrade.db")
	v.SetDefault("metrics.textfile", "")
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

// RolePaths validates role and returns its file set under the work dir.
func (c *Config) RolePaths(role string) (RolePaths, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !slices.Contains(c.Platform.Roles, role) {
		return RolePaths{}, eris.Errorf("config: unknown platform %q (valid: %s)", role, strings.Join(c.Platform.Roles, ", "))
	}

	base := filepath.Join(c.Platform.WorkDir, role)
	planDir := filepath.Join(base, "upgrade_plan")
	return RolePaths{
		Role:           role,
		Inventory:      filepath.Join(base, "apps.csv"),
		Enriched:       filepath.Join(base, "enhanced_app_data.csv"),
		DownloadDir:    filepath.Join(base, "apps"),
		DownloadReport: filepath.Join(base, "download_report.csv"),
		ExtractDir:     filepath.Join(base, "extracted_apps"),
		PlanDir:        planDir,
		Workbook:       filepath.Join(planDir, "upgrade_plan.xlsx"),
	}, nil
}

// Credentials returns the Splunkbase account, preferring explicit settings
// over the credentials file. The file may be JSON or YAML.
func (c *Config) Credentials() (Credentials, error) {
	if c.Splunkbase.Username != "" && c.Splunkbase.Password != "" {
		return Credentials{Username: c.Splunkbase.Username, Password: c.Splunkbase.Password}, nil
	}
	if c.Splunkbase.CredentialsFile == "" {
		return Credentials{}, eris.New("config: splunkbase credentials are required (SPLUNKUP_SPLUNKBASE_USERNAME / SPLUNKUP_SPLUNKBASE_PASSWORD)")
	}

	data, err := os.ReadFile(c.Splunkbase.CredentialsFile)
	if err != nil {
		return Credentials{}, eris.Wrapf(err, "config: read credentials file %s", c.Splunkbase.CredentialsFile)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, eris.Wrap(err, "config: parse credentials file")
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, eris.Errorf("config: credentials file %s must set username and password", c.Splunkbase.CredentialsFile)
	}
	return creds, nil
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
