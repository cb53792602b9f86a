// Package config loads CLI settings from an optional YAML file, an optional
// .env file and CALLCHAIN_* environment variables.
//
// Precedence, highest first: environment, .env file, config file, defaults.
// Command-line flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable: CALLCHAIN_DB, CALLCHAIN_VERIFY_MIN.
const EnvPrefix = "CALLCHAIN"

// DefaultConfigName is searched for in the working directory when no
// config file is given.
const DefaultConfigName = "callchain"

// Config holds every setting the CLI reads.
type Config struct {
	Format  string       `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	Verbose bool         `mapstructure:"verbose" yaml:"verbose"`
	DB      string       `mapstructure:"db" yaml:"db"`
	RawMap  bool         `mapstructure:"raw_map" yaml:"raw_map"`
	Verify  VerifyConfig `mapstructure:"verify" yaml:"verify"`
}

// VerifyConfig bounds the integers used by the verify command.
type VerifyConfig struct {
	Min int64 `mapstructure:"min" yaml:"min"`
	Max int64 `mapstructure:"max" yaml:"max"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format: "text",
		Verify: VerifyConfig{Min: -20, Max: 20},
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field errors are reported
// under their config key names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
			return name
		})
	})
	return validate
}

// Validate checks field tags, then the verify range.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if c.Verify.Min > c.Verify.Max {
		return fmt.Errorf("verify.min (%d) must not exceed verify.max (%d)", c.Verify.Min, c.Verify.Max)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "Config.<key>..."; drop the struct name.
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)",
			key, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	default:
		return fmt.Sprintf("%s is invalid (failed %q)", key, fe.Tag())
	}
}

// LoaderConfig holds optional file overrides.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
	SearchDirs []string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path. A missing file is an
// error.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile reads CALLCHAIN_* settings from a .env file. They override
// the config file, and variables set in the environment override them.
// The process environment is left untouched.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithSearchDirs replaces the directories searched for callchain.yaml.
func WithSearchDirs(dirs ...string) LoaderOption {
	return func(lc *LoaderConfig) { lc.SearchDirs = dirs }
}

// Load resolves the configuration.
func Load(opts ...LoaderOption) (*Config, error) {
	lc := LoaderConfig{SearchDirs: []string{"."}}
	for _, opt := range opts {
		opt(&lc)
	}

	var envFile map[string]any
	if lc.EnvFile != "" {
		var err error
		if envFile, err = envFileSettings(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", lc.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", lc.ConfigFile, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		for _, dir := range lc.SearchDirs {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if len(envFile) > 0 {
		if err := v.MergeConfigMap(envFile); err != nil {
			return nil, fmt.Errorf("failed to apply env file %s: %w", lc.EnvFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("format", d.Format)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("db", d.DB)
	v.SetDefault("raw_map", d.RawMap)
	v.SetDefault("verify.min", d.Verify.Min)
	v.SetDefault("verify.max", d.Verify.Max)
}

// configKeys lists every key Load understands.
var configKeys = []string{"format", "verbose", "db", "raw_map", "verify.min", "verify.max"}

// envName is the variable that carries key: verify.min is CALLCHAIN_VERIFY_MIN.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// envFileSettings parses a .env file and returns its CALLCHAIN_* entries as
// a nested settings map keyed like the config file. Other variables are
// ignored.
func envFileSettings(path string) (map[string]any, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}

	settings := map[string]any{}
	for _, key := range configKeys {
		val, ok := vars[envName(key)]
		if !ok {
			continue
		}
		m := settings
		parts := strings.Split(key, ".")
		for _, part := range parts[:len(parts)-1] {
			next, ok := m[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[part] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = val
	}
	return settings, nil
}
