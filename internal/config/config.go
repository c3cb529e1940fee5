// Package config loads prodreport settings from $HOME/.prodreport.yaml,
// PRODREPORT_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"prodreport/internal/utils"
	"prodreport/pkg/models"
	"prodreport/pkg/source"
)

const (
	EnvPrefix = "PRODREPORT"
	fileName  = ".prodreport"
)

type SourceConfig struct {
	Kind     string `mapstructure:"kind"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	URL      string `mapstructure:"url"`
	APIKey   string `mapstructure:"apikey"`
	Path     string `mapstructure:"path"`
	PageSize int    `mapstructure:"page_size"`
}

type ReportConfig struct {
	TopN           int    `mapstructure:"top_n"`
	TrailingMonths int    `mapstructure:"trailing_months"`
	Locale         string `mapstructure:"locale"`
	IncludeZero    bool   `mapstructure:"include_zero"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// ClientCode maps one exact source code to a client name.
type ClientCode struct {
	Code string `mapstructure:"code"`
	Name string `mapstructure:"name"`
}

// Config is the decoded settings tree. Keys of the clients map lose their
// case in viper and are matched upper-cased; client_codes entries keep the
// code exactly as written and win over the map.
type Config struct {
	Source      SourceConfig      `mapstructure:"source"`
	Report      ReportConfig      `mapstructure:"report"`
	Clients     map[string]string `mapstructure:"clients"`
	ClientCodes []ClientCode      `mapstructure:"client_codes"`
	Server      ServerConfig      `mapstructure:"server"`
}

// DefaultClients is the client code mapping used when none is configured.
func DefaultClients() map[string]string {
	return map[string]string{
		"C0010": "CMPC Osorno",
		"C0005": "Chilempack",
		"C0029": "Chilempack",
		"C0031": "CMPC Osorno",
		"C0049": "CMPC Buin Norte",
		"C0059": "CMPC Buin Sur",
		"C0052": "Til Til",
	}
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", source.File)
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.table", "production_records")
	v.SetDefault("source.url", "")
	v.SetDefault("source.apikey", "")
	v.SetDefault("source.path", "")
	v.SetDefault("source.page_size", 1000)
	v.SetDefault("report.top_n", 10)
	v.SetDefault("report.trailing_months", 3)
	v.SetDefault("report.locale", "es")
	v.SetDefault("report.include_zero", true)
	v.SetDefault("clients", DefaultClients())
	v.SetDefault("server.listen", ":8080")
}

// New returns a viper instance with defaults and environment bindings, and
// the config file read in. cfgFile overrides the default $HOME/.prodreport.yaml,
// which may be absent.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(home)
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		utils.Log.Debugf("no config file found, using defaults")
	} else {
		utils.Log.Debugf("using config file %s", v.ConfigFileUsed())
	}
	return v, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// viper lower-cases map keys
	clients := make(map[string]string, len(cfg.Clients)+len(cfg.ClientCodes))
	for code, name := range cfg.Clients {
		clients[strings.ToUpper(strings.TrimSpace(code))] = name
	}
	for _, c := range cfg.ClientCodes {
		if code := strings.TrimSpace(c.Code); code != "" {
			clients[code] = c.Name
		}
	}
	cfg.Clients = clients
	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Source.Kind {
	case "mysql", "postgres", "sqlite":
		if c.Source.DSN == "" {
			errs = append(errs, fmt.Errorf("source.dsn is required for %s", c.Source.Kind))
		}
	case source.REST:
		if c.Source.URL == "" {
			errs = append(errs, errors.New("source.url is required for rest"))
		}
	case source.File:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for file"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q is not one of mysql, postgres, sqlite, rest, file", c.Source.Kind))
	}
	if c.Source.Kind != source.File && !utils.ValidTableName(c.Source.Table) {
		errs = append(errs, fmt.Errorf("source.table %q is not a valid table name", c.Source.Table))
	}
	for i, cc := range c.ClientCodes {
		if strings.TrimSpace(cc.Code) == "" {
			errs = append(errs, fmt.Errorf("client_codes[%d].code is empty", i))
		}
	}
	if c.Source.PageSize <= 0 {
		errs = append(errs, errors.New("source.page_size must be positive"))
	}
	if c.Report.TopN <= 0 {
		errs = append(errs, errors.New("report.top_n must be positive"))
	}
	if c.Report.TrailingMonths <= 0 {
		errs = append(errs, errors.New("report.trailing_months must be positive"))
	}
	if c.Report.Locale != "es" && c.Report.Locale != "en" {
		errs = append(errs, fmt.Errorf("report.locale %q is not one of es, en", c.Report.Locale))
	}
	return errors.Join(errs...)
}

// SourceOptions maps the source section onto source.New options.
func (c *Config) SourceOptions(progress bool) source.Options {
	return source.Options{
		Kind:     c.Source.Kind,
		DSN:      c.Source.DSN,
		Table:    c.Source.Table,
		URL:      c.Source.URL,
		APIKey:   c.Source.APIKey,
		Path:     c.Source.Path,
		PageSize: c.Source.PageSize,
		Progress: progress,
	}
}

// ClientMapping returns the configured client names keyed by code.
func (c *Config) ClientMapping() models.ClientMapping {
	return models.ClientMapping(c.Clients)
}

// ReportDefaults seeds a report config from the report section.
func (c *Config) ReportDefaults() models.ReportConfig {
	return models.ReportConfig{
		TopN:           c.Report.TopN,
		TrailingMonths: c.Report.TrailingMonths,
		IncludeZero:    c.Report.IncludeZero,
		Locale:         c.Report.Locale,
	}
}
