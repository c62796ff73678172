package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

//Database holds the settings needed to open a connection to the toll database
type Database struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// Path is only used by the sqlite driver. Empty means in memory.
	Path string `yaml:"path"`
}

//DSN returns a PostgreSQL connection URL built from the database settings
func (d Database) DSN() string {
	hostPort := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))

	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), hostPort, d.Name, d.SSLMode)
}

//Config is the service configuration as read from file and environment
type Config struct {
	Port          string   `yaml:"port"`
	LogLevel      string   `yaml:"log_level"`
	LogFilePath   string   `yaml:"log_file_path"`
	LogMaxAgeDays int      `yaml:"log_max_age_days"`
	SegmentsFile  string   `yaml:"segments_file"`
	Database      Database `yaml:"database"`
}

//GetLogLevel maps the configured level name to a logrus level, defaulting to info
func (c *Config) GetLogLevel() log.Level {
	switch c.LogLevel {
	case "DEBUG":
		return log.DebugLevel
	case "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

//Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Port:          "8484",
		LogLevel:      "INFO",
		LogMaxAgeDays: 30,
		Database: Database{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "maut",
			Name:    "maut",
			SSLMode: "disable",
		},
	}
}

//Load reads the yaml file at confPath (if any) on top of the defaults and then applies
//environment overrides
func Load(confPath string) (Config, error) {
	c := Default()

	if confPath != "" {
		data, err := os.ReadFile(confPath)
		if err != nil {
			return c, fmt.Errorf("failed to read config file %s: %w", confPath, err)
		}

		if err = yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("failed to parse config file %s: %w", confPath, err)
		}
	}

	if err := applyEnvironment(&c); err != nil {
		return c, err
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return c, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	return c, nil
}

func applyEnvironment(c *Config) error {
	setFromEnv := func(key string, target *string) {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}

	setFromEnv("TOLLMANAGEMENT_API_PORT", &c.Port)
	setFromEnv("TOLLMANAGEMENT_LOG_LEVEL", &c.LogLevel)
	setFromEnv("TOLLMANAGEMENT_DB_DRIVER", &c.Database.Driver)
	setFromEnv("TOLLMANAGEMENT_DB_HOST", &c.Database.Host)
	setFromEnv("TOLLMANAGEMENT_DB_USER", &c.Database.User)
	setFromEnv("TOLLMANAGEMENT_DB_PASSWORD", &c.Database.Password)
	setFromEnv("TOLLMANAGEMENT_DB_NAME", &c.Database.Name)
	setFromEnv("TOLLMANAGEMENT_DB_SSLMODE", &c.Database.SSLMode)
	setFromEnv("TOLLMANAGEMENT_DB_PATH", &c.Database.Path)

	if port := os.Getenv("TOLLMANAGEMENT_DB_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid TOLLMANAGEMENT_DB_PORT %q: %w", port, err)
		}
		c.Database.Port = p
	}

	return nil
}
