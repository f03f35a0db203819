package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ConsoleEnabled  bool

	DatabaseURL        string
	StoreRetryAttempts int

	// Upstream credentials and timeouts.
	DataPortalKey    string
	WeatherPortalKey string
	KMAHubKey        string
	UpstreamTimeout  time.Duration
	ChromePath       string

	// Geocoding configuration.
	KakaoRESTKey    string
	GeocodeEnabled  bool
	GeocodeTimeout  time.Duration
	GeocacheBackend string
	GeocachePath    string
	RedisAddr       string

	// Push and downstream fan-out.
	FCMProjectID       string
	FCMCredentialsFile string
	PushBatchSize      int
	KafkaBrokers       []string
	KafkaTopic         string

	// Source behaviour.
	NERURL                string
	SMSSeenSize           int
	FloodStatusChangeOnly bool

	// Scheduling.
	SchedulerTick  time.Duration
	WorkerPoolSize int
	Intervals      map[string]time.Duration
}

// Job names, shared by the scheduler registry, interval settings and the console.
const (
	JobAirForecast = "air_forecast"
	JobAirGrade    = "air_grade"
	JobEarthquake  = "earthquake"
	JobTyphoon     = "typhoon"
	JobFlood       = "flood"
	JobWarning     = "warning"
	JobDisasterSMS = "disaster_sms"
)

var defaultIntervals = []struct {
	job    string
	envVar string
	def    string
}{
	{JobAirForecast, "AIR_FORECAST_INTERVAL", "10h"},
	{JobAirGrade, "AIR_GRADE_INTERVAL", "10h"},
	{JobEarthquake, "EARTHQUAKE_INTERVAL", "10m"},
	{JobTyphoon, "TYPHOON_INTERVAL", "1h"},
	{JobFlood, "FLOOD_INTERVAL", "10m"},
	{JobWarning, "WARNING_INTERVAL", "5m"},
	{JobDisasterSMS, "SMS_INTERVAL", "60s"},
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parsePositiveDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	tick, err := parsePositiveDuration("SCHEDULER_TICK", "1s")
	if err != nil {
		return nil, err
	}

	intervals := make(map[string]time.Duration, len(defaultIntervals))
	for _, d := range defaultIntervals {
		v, err := parsePositiveDuration(d.envVar, d.def)
		if err != nil {
			return nil, err
		}
		intervals[d.job] = v
	}

	retries, err := parsePositiveInt("STORE_RETRY_ATTEMPTS", 2)
	if err != nil {
		return nil, err
	}
	pushBatch, err := parsePositiveInt("PUSH_BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}
	seenSize, err := parsePositiveInt("SMS_SEEN_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	poolSize, err := parseNonNegativeInt("WORKER_POOL_SIZE", 0)
	if err != nil {
		return nil, err
	}

	dataPortalKey := os.Getenv("DATA_PORTAL_KEY")
	kakaoKey := os.Getenv("KAKAO_REST_KEY")
	geocodeEnabled := kakaoKey != ""
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		ConsoleEnabled:  sharedcfg.EnvOrDefault("CONSOLE_ENABLED", "true") == "true",

		DatabaseURL:        os.Getenv("DATABASE_URL"),
		StoreRetryAttempts: retries,

		DataPortalKey:    dataPortalKey,
		WeatherPortalKey: sharedcfg.EnvOrDefault("WEATHER_PORTAL_KEY", dataPortalKey),
		KMAHubKey:        os.Getenv("KMA_HUB_KEY"),
		UpstreamTimeout:  upstreamTimeout,
		ChromePath:       os.Getenv("CHROME_PATH"),

		KakaoRESTKey:    kakaoKey,
		GeocodeEnabled:  geocodeEnabled,
		GeocodeTimeout:  geocodeTimeout,
		GeocacheBackend: sharedcfg.EnvOrDefault("GEOCACHE_BACKEND", "file"),
		GeocachePath:    sharedcfg.EnvOrDefault("GEOCACHE_PATH", "data/geocache.jsonl"),
		RedisAddr:       sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),

		FCMProjectID:       os.Getenv("FCM_PROJECT_ID"),
		FCMCredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
		PushBatchSize:      pushBatch,
		KafkaBrokers:       brokers,
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "rtd-records"),

		NERURL:                os.Getenv("NER_URL"),
		SMSSeenSize:           seenSize,
		FloodStatusChangeOnly: os.Getenv("FLOOD_STATUS_CHANGE_ONLY") == "true",

		SchedulerTick:  tick,
		WorkerPoolSize: poolSize,
		Intervals:      intervals,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.GeocodeEnabled && cfg.KakaoRESTKey == "" {
		return nil, errors.New("GEOCODE_ENABLED is true but KAKAO_REST_KEY is not set")
	}
	if cfg.GeocacheBackend != "file" && cfg.GeocacheBackend != "redis" {
		return nil, fmt.Errorf("invalid GEOCACHE_BACKEND %q: want file or redis", cfg.GeocacheBackend)
	}
	if (cfg.FCMProjectID == "") != (cfg.FCMCredentialsFile == "") {
		return nil, errors.New("FCM_PROJECT_ID and FCM_CREDENTIALS_FILE must be set together")
	}

	return cfg, nil
}

// PushEnabled reports whether push credentials were configured.
func (c *Config) PushEnabled() bool {
	return c.FCMProjectID != ""
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	n, err := parseNonNegativeInt(key, def)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
