package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"phenomap/logger"
	"phenomap/schema"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log     logger.Config     `yaml:"log"`
	Models  map[string]string `yaml:"models"`
	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

func Default() *Config {
	var c Config
	c.Http.Port = 8501
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	c.Models = map[string]string{schema.Phenotype.Name: "clf.json"}
	return &c
}

// Load decodes the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}
	if config.Http.Port == 0 {
		config.Http.Port = 8501
	}
	if config.Http.Timeout <= 0 {
		config.Http.Timeout = 30 * time.Second
	}
	config.resolvePaths(filepath.Dir(path))
	return config, nil
}

// Find looks for name in the working directory, then its parent, so the
// binaries work when run from cmd/.
func Find(name string) string {
	if _, err := os.Stat(name); os.IsNotExist(err) {
		if parent := filepath.Join("..", name); fileExists(parent) {
			return parent
		}
	}
	return name
}

func (c *Config) resolvePaths(dir string) {
	for name, p := range c.Models {
		if p != "" && !filepath.IsAbs(p) {
			c.Models[name] = filepath.Join(dir, p)
		}
	}
	if c.Journal.Path != "" && !filepath.IsAbs(c.Journal.Path) {
		c.Journal.Path = filepath.Join(dir, c.Journal.Path)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
