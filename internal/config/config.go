// Package config provides configuration management for ocrrun.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jmgilman/ocrrun/internal/flags"
)

// Default configuration values.
const (
	DefaultConfigDir  = ".config/ocrrun"
	DefaultConfigFile = "config.yaml"
	DefaultDataDir    = ".local/share/ocrrun"

	DefaultInterpreter  = "python"
	DefaultOCRScript    = "src/ocr_poc.py"
	DefaultReviewScript = "scripts/accuracy_reviewer.py"
	DefaultIoUThreshold = 0.5
)

// Sentinel errors for configuration operations.
var (
	ErrInvalidKey       = errors.New("invalid configuration key")
	ErrInvalidThreshold = errors.New("invalid IoU threshold")
	ErrNoEditor         = errors.New("$EDITOR environment variable not set")
	ErrNotScalar        = errors.New("key holds a section or map and cannot be set from the command line")
)

// validKeys and nestedKeys are built once from Config struct reflection.
// nestedKeys holds the keys whose values are sections or maps.
var validKeys, nestedKeys = buildValidKeys()

// validate is the shared validator instance.
var validate = validator.New()

// Config represents the full ocrrun configuration.
type Config struct {
	Interpreter InterpreterConfig `mapstructure:"interpreter" yaml:"interpreter"`
	Scripts     ScriptsConfig     `mapstructure:"scripts" yaml:"scripts"`
	OCR         OCRConfig         `mapstructure:"ocr" yaml:"ocr"`
	Review      ReviewConfig      `mapstructure:"review" yaml:"review"`
}

// InterpreterConfig selects the program that runs the external scripts.
type InterpreterConfig struct {
	Program string `mapstructure:"program" yaml:"program" validate:"required"`
}

// ScriptsConfig holds the paths of the external scripts.
type ScriptsConfig struct {
	// Dir is the working directory the scripts run in. Relative script
	// paths resolve against it.
	Dir    string `mapstructure:"dir" yaml:"dir"`
	OCR    string `mapstructure:"ocr" yaml:"ocr" validate:"required"`
	Review string `mapstructure:"review" yaml:"review" validate:"required"`
}

// OCRConfig holds defaults for OCR runs.
type OCRConfig struct {
	OutputFolder string `mapstructure:"output_folder" yaml:"output_folder" validate:"required"`
	NoCSV        bool   `mapstructure:"no_csv" yaml:"no_csv"`
	// ExtraFlags are passed to the OCR script as additional options.
	ExtraFlags map[string]any `mapstructure:"extra_flags" yaml:"extra_flags,omitempty"`
}

// ReviewConfig holds defaults for accuracy reviews.
type ReviewConfig struct {
	IoUThreshold float64        `mapstructure:"iou_threshold" yaml:"iou_threshold" validate:"gte=0,lte=1"`
	ExtraFlags   map[string]any `mapstructure:"extra_flags" yaml:"extra_flags,omitempty"`
}

// Validate checks the configuration for errors using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := flags.FromConfig(c.OCR.ExtraFlags); err != nil {
		return fmt.Errorf("config validation failed: ocr.extra_flags: %w", err)
	}
	if _, err := flags.FromConfig(c.Review.ExtraFlags); err != nil {
		return fmt.Errorf("config validation failed: review.extra_flags: %w", err)
	}
	return nil
}

// Loader provides configuration loading and saving.
type Loader struct {
	v       *viper.Viper
	path    string
	homeDir string
}

// NewLoader creates a new configuration loader.
func NewLoader() (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	return newLoader(home, filepath.Join(home, DefaultConfigDir, DefaultConfigFile)), nil
}

// NewLoaderAt creates a loader for an explicit config file path.
func NewLoaderAt(path string) (*Loader, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}

	return newLoader(home, path), nil
}

func newLoader(home, configPath string) *Loader {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Environment variable binding
	v.SetEnvPrefix("OCRRUN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// BindEnv only fails when called with zero arguments.
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("interpreter.program", "OCRRUN_PYTHON")
	//nolint:errcheck // BindEnv only fails with zero arguments
	v.BindEnv("ocr.output_folder", "OCRRUN_OUTPUT_FOLDER")

	l := &Loader{
		v:       v,
		path:    configPath,
		homeDir: home,
	}

	setDefaults(v)
	return l
}

// setDefaults sets all default configuration values on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("interpreter.program", DefaultInterpreter)
	v.SetDefault("scripts.dir", "")
	v.SetDefault("scripts.ocr", DefaultOCRScript)
	v.SetDefault("scripts.review", DefaultReviewScript)
	v.SetDefault("ocr.output_folder", "~/"+DefaultDataDir+"/output")
	v.SetDefault("ocr.no_csv", false)
	v.SetDefault("review.iou_threshold", DefaultIoUThreshold)
}

// fileViper returns a viper bound to the config file only, without
// defaults or environment overrides.
func (l *Loader) fileViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(l.path)
	v.SetConfigType("yaml")
	return v
}

// Load reads the configuration file, creating defaults if it doesn't exist.
func (l *Loader) Load() (*Config, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := l.createDefault(); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.OCR.OutputFolder = l.ExpandPath(cfg.OCR.OutputFolder)
	cfg.Scripts.Dir = l.ExpandPath(cfg.Scripts.Dir)

	return &cfg, nil
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Get returns a configuration value by dot-notation key.
func (l *Loader) Get(key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return l.v.Get(key), nil
}

// Set sets a configuration value by dot-notation key and writes the file.
func (l *Loader) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if nestedKeys[key] {
		return fmt.Errorf("%w: %s (use config --edit)", ErrNotScalar, key)
	}

	if key == "review.iou_threshold" {
		if err := ValidateThreshold(value); err != nil {
			return err
		}
	}

	fv := l.fileViper()
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	fv.Set(key, value)
	if err := fv.WriteConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	l.v.Set(key, value)
	return nil
}

// createDefault writes the default configuration file using Viper.
func (l *Loader) createDefault() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fv := l.fileViper()
	setDefaults(fv)
	return fv.SafeWriteConfigAs(l.path)
}

// ExpandPath replaces a leading ~ with the home directory.
func (l *Loader) ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(l.homeDir, path[2:])
	}
	if path == "~" {
		return l.homeDir
	}
	return path
}

// ValidateThreshold checks that value parses as a number in [0, 1].
func ValidateThreshold(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidThreshold, value)
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("%w: %s is outside [0, 1]", ErrInvalidThreshold, value)
	}
	return nil
}

// ValidateKey checks if a key is a valid configuration key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if validKeys[key] {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidKey, key)
}

// buildValidKeys builds the set of valid keys from Config struct using
// reflection, along with the subset that holds sections or maps.
func buildValidKeys() (map[string]bool, map[string]bool) {
	keys := make(map[string]bool)
	nested := make(map[string]bool)
	addKeysFromType(reflect.TypeOf(Config{}), "", keys, nested)
	return keys, nested
}

// addKeysFromType recursively adds keys from a struct type.
func addKeysFromType(t reflect.Type, prefix string, keys, nested map[string]bool) {
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		keys[key] = true

		switch field.Type.Kind() {
		case reflect.Struct:
			nested[key] = true
			addKeysFromType(field.Type, key, keys, nested)
		case reflect.Map:
			nested[key] = true
		}
	}
}
