package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lxb523532595/gendata/internal/dataset"
	"github.com/lxb523532595/gendata/internal/noise"
	"github.com/lxb523532595/gendata/internal/rng"
	"github.com/lxb523532595/gendata/internal/utils"
)

const dirName = ".gendata"

// ErrInvalid is wrapped by Load when the configuration was read but holds
// values that fail Validate.
var ErrInvalid = errors.New("invalid configuration")

// Global configuration structure. Command line flags override these values.
type Global struct {
	Rows      int    `mapstructure:"rows" yaml:"rows"`
	Precision int    `mapstructure:"precision" yaml:"precision"`
	Seed      int64  `mapstructure:"seed" yaml:"seed"`
	Format    string `mapstructure:"format" yaml:"format"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// Noise bounds as "min,max"; empty disables the noise.
	ResultNoise  string `mapstructure:"result_noise" yaml:"result_noise"`
	FeatureNoise string `mapstructure:"feature_noise" yaml:"feature_noise"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"rows", "precision", "seed", "format", "namespace", "result_noise", "feature_noise"}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Rows:      10,
		Precision: 6,
		Seed:      rng.DefaultSeed,
		Format:    dataset.FormatPlain.String(),
		Namespace: dataset.DefaultNamespace,
	}
}

// DefaultPath returns ~/.gendata/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.gendata/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GENDATA")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("rows", d.Rows)
	v.SetDefault("precision", d.Precision)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("format", d.Format)
	v.SetDefault("namespace", d.Namespace)
	v.SetDefault("result_noise", d.ResultNoise)
	v.SetDefault("feature_noise", d.FeatureNoise)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; an explicit or broken one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return &c, nil
}

// Validate checks every field the way the command line flags are checked.
func (c *Global) Validate() error {
	if c.Rows < 0 {
		return fmt.Errorf("invalid rows: %d", c.Rows)
	}
	if c.Precision < 0 {
		return fmt.Errorf("invalid precision: %d", c.Precision)
	}
	if _, err := dataset.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.ResultNoise != "" {
		if _, err := noise.ParseBounds(noise.OptionResult, c.ResultNoise); err != nil {
			return err
		}
	}
	if c.FeatureNoise != "" {
		if _, err := noise.ParseBounds(noise.OptionFeature, c.FeatureNoise); err != nil {
			return err
		}
	}
	return nil
}

// Set assigns key from its string form and validates the result.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for rows: %v", val)
		}
		next.Rows = i
	case "precision":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for precision: %v", val)
		}
		next.Precision = i
	case "seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %v", val)
		}
		next.Seed = i
	case "format":
		f, err := dataset.ParseFormat(val)
		if err != nil {
			return err
		}
		next.Format = f.String()
	case "namespace":
		next.Namespace = strings.TrimSpace(val)
	case "result_noise":
		next.ResultNoise = strings.TrimSpace(val)
	case "feature_noise":
		next.FeatureNoise = strings.TrimSpace(val)
	default:
		return fmt.Errorf("unknown key: %s (use one of %s)", key, strings.Join(Keys, ", "))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the string form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "rows":
		return strconv.Itoa(c.Rows), nil
	case "precision":
		return strconv.Itoa(c.Precision), nil
	case "seed":
		return strconv.FormatInt(c.Seed, 10), nil
	case "format":
		return c.Format, nil
	case "namespace":
		return c.Namespace, nil
	case "result_noise":
		return c.ResultNoise, nil
	case "feature_noise":
		return c.FeatureNoise, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
