// Package config loads hlorm settings from hlorm.yaml, .env files and HLORM_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/hlblock/hlorm/logger"
)

// EnvPrefix prefix of environment variables
const EnvPrefix = "HLORM"

var AppFs = afero.NewOsFs()

// Settings application settings
type Settings struct {
	// Driver database/sql driver name or mongodb
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// Database mongodb database name
	Database      string        `mapstructure:"database"`
	Prefix        string        `mapstructure:"prefix"`
	DateFormat    string        `mapstructure:"date_format"`
	UploadFolder  string        `mapstructure:"upload_folder"`
	FilesRoot     string        `mapstructure:"files_root"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	// LogHideValues replace filter and written values with ? in traces
	LogHideValues bool          `mapstructure:"log_hide_values"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
	Metrics       bool          `mapstructure:"metrics"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
}

// Options where settings are looked up
type Options struct {
	Fs afero.Fs
	// ConfigFile explicit config file, searched in Dirs when empty
	ConfigFile string
	// Dirs searched for hlorm.yaml, the working directory and ~/.hlorm by default
	Dirs []string
	// EnvFiles dotenv files applied when present, later files win
	EnvFiles []string
}

// Load read settings, environment variables win over dotenv files which win over the config file
func Load(opts Options) (*Settings, error) {
	if opts.Fs == nil {
		opts.Fs = AppFs
	}
	if opts.Dirs == nil {
		opts.Dirs = []string{"."}
		if home, err := homedir.Dir(); err == nil {
			opts.Dirs = append(opts.Dirs, filepath.Join(home, ".hlorm"))
		}
	}
	if opts.EnvFiles == nil {
		opts.EnvFiles = []string{".env", ".env.local"}
	}

	v := viper.New()
	v.SetFs(opts.Fs)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("driver", "sqlite3")
	v.SetDefault("dsn", "hlorm.db")
	v.SetDefault("database", "hlorm")
	v.SetDefault("prefix", "uf_")
	v.SetDefault("date_format", "02.01.2006 15:04:05")
	v.SetDefault("upload_folder", "/upload/")
	v.SetDefault("files_root", "upload")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_hide_values", false)
	v.SetDefault("slow_threshold", 200*time.Millisecond)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_addr", ":9090")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("hlorm")
		v.SetConfigType("yaml")
		for _, dir := range opts.Dirs {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	for _, name := range opts.EnvFiles {
		values, err := readEnvFile(opts.Fs, name)
		if err != nil {
			return nil, err
		}
		for key, value := range values {
			if !strings.HasPrefix(key, EnvPrefix+"_") {
				continue
			}
			if _, ok := os.LookupEnv(key); ok {
				continue
			}
			v.Set(strings.ToLower(strings.TrimPrefix(key, EnvPrefix+"_")), value)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func readEnvFile(fs afero.Fs, name string) (map[string]string, error) {
	file, err := fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values, err := godotenv.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	return values, nil
}

// Logger logger of the configured format, zap loggers write to stderr and the others to out
func (s *Settings) Logger(out io.Writer) (logger.Interface, error) {
	config := logger.Config{
		SlowThreshold: s.SlowThreshold,
		HideValues:    s.LogHideValues,
		LogLevel:      logger.ParseLevel(s.LogLevel),
	}

	switch strings.ToLower(s.LogFormat) {
	case "", "text":
		config.Colorful = out == os.Stdout
		return logger.New(log.New(out, "\r\n", log.LstdFlags), config), nil
	case "zerolog":
		return logger.NewZerologLoggerWithConfig(config, out), nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(out)
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.TraceLevel)
		return logger.NewLogrusLogger(l, config), nil
	case "zap":
		return logger.NewZapLoggerWithConfig(config)
	}
	return nil, fmt.Errorf("config: unknown log format %q", s.LogFormat)
}
