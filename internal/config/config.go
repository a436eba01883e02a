package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	ProjectsDir   string `mapstructure:"projects_dir" yaml:"projects_dir"`
	OutputFormat  string `mapstructure:"output_format" yaml:"output_format"`
	RenderWorkers int    `mapstructure:"render_workers" yaml:"render_workers"`
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"projects_dir", "output_format", "render_workers", "log_level", "log_format"}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".robowriter"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.robowriter/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ROBOWRITER")
	v.AutomaticEnv()

	v.SetDefault("projects_dir", "")
	v.SetDefault("output_format", "html")
	v.SetDefault("render_workers", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve projects_dir default: ~/.robowriter/projects
	if c.ProjectsDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	switch c.OutputFormat {
	case "html", "md":
	default:
		return fmt.Errorf("output_format must be html or md, got %q", c.OutputFormat)
	}
	if c.RenderWorkers < 1 {
		return fmt.Errorf("render_workers must be at least 1, got %d", c.RenderWorkers)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Set assigns one key from its string form.
func (c *Global) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "projects_dir":
		c.ProjectsDir = value
	case "output_format":
		c.OutputFormat = value
	case "render_workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("render_workers: %w", err)
		}
		c.RenderWorkers = n
	case "log_level":
		c.LogLevel = value
	case "log_format":
		c.LogFormat = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}

// Get returns one key in string form.
func (c *Global) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "projects_dir":
		return c.ProjectsDir, nil
	case "output_format":
		return c.OutputFormat, nil
	case "render_workers":
		return strconv.Itoa(c.RenderWorkers), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
}
