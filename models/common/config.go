package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/APTrust/integrity-services/constants"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

type Config struct {
	AlertTopic             string
	ArtifactRoot           string
	ArtifactSource         string
	ArtifactsFile          string
	BackoffInterval        time.Duration
	BaselineManifest       string
	BaselineManifestSha256 string
	BaselineSource         string
	ConfigName             string
	EnhancedInterval       time.Duration
	EnhancedSweeps         int
	HistoryLimit           int
	HTTPAddr               string
	LogDir                 string
	LogLevel               logging.Level
	NsqLookupd             string
	NsqURL                 string
	PidFile                string
	RedisBaselineKey       string
	RedisDefaultDB         int
	RedisPassword          string
	RedisURL               string
	S3Bucket               string
	S3Host                 string
	S3KeyID                string
	S3Prefix               string
	S3SecretKey            string
	S3UseSSL               bool
	StrictBaseline         bool
	SweepInterval          time.Duration
	WatchArtifacts         bool
}

// NewConfig returns a new config based on the env vars IM_CONFIG_DIR
// and IM_CONFIG_NAME. It panics if the config can't be loaded or is
// not valid, because none of our services can do anything useful
// without one.
func NewConfig() *Config {
	configDir, configName := getEnvVars()
	config, err := LoadConfig(configDir, configName)
	if err != nil {
		panic(err)
	}
	return config
}

// LoadConfig loads .env.<configName> from configDir.
func LoadConfig(configDir, configName string) (*Config, error) {
	config, err := loadConfig(configDir, configName)
	if err != nil {
		return nil, err
	}
	if err = config.expandPaths(); err != nil {
		return nil, err
	}
	if err = config.sanityCheck(); err != nil {
		return nil, err
	}
	if err = config.makeDirs(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadConfig(configDir, configName string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + configName)
	v.SetConfigType("env")
	setDefaults(v)
	err := v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("Fatal error config file: %s", err)
	}
	logLevel, err := logging.LogLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("Invalid LOG_LEVEL '%s': %v", v.GetString("LOG_LEVEL"), err)
	}
	return &Config{
		AlertTopic:             v.GetString("ALERT_TOPIC"),
		ArtifactRoot:           v.GetString("ARTIFACT_ROOT"),
		ArtifactSource:         strings.ToLower(v.GetString("ARTIFACT_SOURCE")),
		ArtifactsFile:          v.GetString("ARTIFACTS_FILE"),
		BackoffInterval:        v.GetDuration("BACKOFF_INTERVAL"),
		BaselineManifest:       v.GetString("BASELINE_MANIFEST"),
		BaselineManifestSha256: strings.ToLower(v.GetString("BASELINE_MANIFEST_SHA256")),
		BaselineSource:         strings.ToLower(v.GetString("BASELINE_SOURCE")),
		ConfigName:             configName,
		EnhancedInterval:       v.GetDuration("ENHANCED_INTERVAL"),
		EnhancedSweeps:         v.GetInt("ENHANCED_SWEEPS"),
		HistoryLimit:           v.GetInt("HISTORY_LIMIT"),
		HTTPAddr:               v.GetString("HTTP_ADDR"),
		LogDir:                 v.GetString("LOG_DIR"),
		LogLevel:               logLevel,
		NsqLookupd:             v.GetString("NSQ_LOOKUPD"),
		NsqURL:                 v.GetString("NSQ_URL"),
		PidFile:                v.GetString("PID_FILE"),
		RedisBaselineKey:       v.GetString("REDIS_BASELINE_KEY"),
		RedisDefaultDB:         v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisURL:               v.GetString("REDIS_URL"),
		S3Bucket:               v.GetString("S3_BUCKET"),
		S3Host:                 v.GetString("S3_HOST"),
		S3KeyID:                v.GetString("S3_KEY"),
		S3Prefix:               v.GetString("S3_PREFIX"),
		S3SecretKey:            v.GetString("S3_SECRET"),
		S3UseSSL:               v.GetBool("S3_USE_SSL"),
		StrictBaseline:         v.GetBool("STRICT_BASELINE"),
		SweepInterval:          v.GetDuration("SWEEP_INTERVAL"),
		WatchArtifacts:         v.GetBool("WATCH_ARTIFACTS"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ALERT_TOPIC", constants.TopicIntegrityAlert)
	v.SetDefault("ARTIFACT_ROOT", "/")
	v.SetDefault("ARTIFACT_SOURCE", constants.ArtifactSourceFile)
	v.SetDefault("BACKOFF_INTERVAL", constants.DefaultBackoffInterval)
	v.SetDefault("BASELINE_SOURCE", constants.BaselineSourceManifest)
	v.SetDefault("HISTORY_LIMIT", constants.DefaultHistoryLimit)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("REDIS_BASELINE_KEY", constants.DefaultRedisBaseline)
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("SWEEP_INTERVAL", constants.DefaultSweepInterval)
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("IM_CONFIG_DIR")
	configName := getRequiredEnvVar("IM_CONFIG_NAME")
	return configDir, configName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() (err error) {
	paths := []*string{
		&c.ArtifactRoot,
		&c.ArtifactsFile,
		&c.BaselineManifest,
		&c.LogDir,
		&c.PidFile,
	}
	for _, p := range paths {
		if *p, err = expandTilde(*p); err != nil {
			return err
		}
	}
	return nil
}

func expandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func (c *Config) sanityCheck() error {
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.BackoffInterval < c.SweepInterval {
		return fmt.Errorf("BACKOFF_INTERVAL (%s) must not be shorter than SWEEP_INTERVAL (%s)",
			c.BackoffInterval, c.SweepInterval)
	}
	if c.EnhancedInterval < 0 || c.EnhancedSweeps < 0 {
		return fmt.Errorf("ENHANCED_INTERVAL and ENHANCED_SWEEPS cannot be negative")
	}
	switch c.ArtifactSource {
	case constants.ArtifactSourceFile:
	case constants.ArtifactSourceS3:
		if c.S3Host == "" || c.S3Bucket == "" {
			return fmt.Errorf("ARTIFACT_SOURCE s3 requires S3_HOST and S3_BUCKET")
		}
	default:
		return fmt.Errorf("Unknown ARTIFACT_SOURCE '%s'", c.ArtifactSource)
	}
	switch c.BaselineSource {
	case constants.BaselineSourceManifest:
		if c.BaselineManifest == "" {
			return fmt.Errorf("BASELINE_SOURCE manifest requires BASELINE_MANIFEST")
		}
	case constants.BaselineSourceRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("BASELINE_SOURCE redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("Unknown BASELINE_SOURCE '%s'", c.BaselineSource)
	}
	return nil
}

func (c *Config) makeDirs() error {
	if c.LogDir == "" {
		return nil
	}
	return os.MkdirAll(c.LogDir, 0755)
}

// ToJSON returns the config as JSON, with credentials blanked out,
// so it can be written to the log at startup.
func (c *Config) ToJSON() string {
	safeCopy := *c
	if safeCopy.RedisPassword != "" {
		safeCopy.RedisPassword = "********"
	}
	if safeCopy.S3SecretKey != "" {
		safeCopy.S3SecretKey = "********"
	}
	data, _ := json.Marshal(safeCopy)
	return string(data)
}
