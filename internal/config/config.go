package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPathEnv names an optional YAML file; environment variables win over it.
const configPathEnv = "NEWSHARVEST_CONFIG"

type Config struct {
	AppPort string `yaml:"appPort"`
	GinMode string `yaml:"ginMode"`

	PostgresDSN string `yaml:"postgresDsn"`
	RedisAddr   string `yaml:"redisAddr"`

	CronSpec   string        `yaml:"cronSpec"`
	RunTimeout time.Duration `yaml:"runTimeout"`

	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	FetchRate    float64       `yaml:"fetchRate"`

	LogLevel string `yaml:"logLevel"`

	SourcesFile string `yaml:"sourcesFile"`
	TablesFile  string `yaml:"tablesFile"`

	CORSOrigins []string `yaml:"corsOrigins"`

	// site-wide Basic Auth; disabled unless both are set
	BasicAuthUser string `yaml:"basicAuthUser"`
	BasicAuthPass string `yaml:"basicAuthPass"`
}

// DefaultCORSOrigins are the browser origins allowed when none are configured.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"https://*.vercel.app",
}

func defaultConfig() Config {
	return Config{
		AppPort:      "5000",
		GinMode:      "release",
		CronSpec:     "*/30 * * * *",
		RunTimeout:   10 * time.Minute,
		FetchTimeout: 15 * time.Second,
		FetchRate:    1,
		LogLevel:     "info",
		CORSOrigins:  append([]string(nil), DefaultCORSOrigins...),
	}
}

func Load() *Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := readFile(path)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnv()

	log.Printf("config loaded: port=%s cron=%s archive=%t sources=%q",
		cfg.AppPort, cfg.CronSpec, cfg.PostgresDSN != "", cfg.SourcesFile)
	return &cfg
}

func readFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, err
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, err
	}
	return fileCfg, nil
}

func (c *Config) applyEnv() {
	c.AppPort = getEnv("APP_PORT", c.AppPort)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.CronSpec = getEnv("CRON_SPEC", c.CronSpec)
	c.RunTimeout = getDuration("RUN_TIMEOUT", c.RunTimeout)
	c.FetchTimeout = getDuration("FETCH_TIMEOUT", c.FetchTimeout)
	c.FetchRate = getFloat("FETCH_RATE", c.FetchRate)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SourcesFile = getEnv("SOURCES_FILE", c.SourcesFile)
	c.TablesFile = getEnv("TABLES_FILE", c.TablesFile)
	c.BasicAuthUser = getEnv("APP_BASIC_USER", c.BasicAuthUser)
	c.BasicAuthPass = getEnv("APP_BASIC_PASS", c.BasicAuthPass)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.AppPort, override.AppPort)
	mergeString(&base.GinMode, override.GinMode)
	mergeString(&base.PostgresDSN, override.PostgresDSN)
	mergeString(&base.RedisAddr, override.RedisAddr)
	mergeString(&base.CronSpec, override.CronSpec)
	mergeString(&base.LogLevel, override.LogLevel)
	mergeString(&base.SourcesFile, override.SourcesFile)
	mergeString(&base.TablesFile, override.TablesFile)
	mergeString(&base.BasicAuthUser, override.BasicAuthUser)
	mergeString(&base.BasicAuthPass, override.BasicAuthPass)
	if override.RunTimeout > 0 {
		base.RunTimeout = override.RunTimeout
	}
	if override.FetchTimeout > 0 {
		base.FetchTimeout = override.FetchTimeout
	}
	if override.FetchRate > 0 {
		base.FetchRate = override.FetchRate
	}
	if len(override.CORSOrigins) > 0 {
		base.CORSOrigins = override.CORSOrigins
	}
	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		log.Printf("config: invalid %s=%q, using %v", key, v, def)
		return def
	}
	return f
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
