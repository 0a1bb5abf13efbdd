package config

import (
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	OpenWeatherApiKey  string
	OpenWeatherBaseUrl string
	OpenWeatherTimeout time.Duration

	OsrmBaseUrl string

	PositionStackApiKey  string
	PositionStackBaseUrl string
	ReverseGeo           bool

	RedisAddress string
	DisableRedis bool

	CandidateOffsets []time.Duration
	Port             string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenWeatherApiKey:    os.Getenv("openweather_apikey"),
		OpenWeatherBaseUrl:   getEnv("openweather_baseurl", "https://api.openweathermap.org/data/2.5"),
		OsrmBaseUrl:          getEnv("osrm_baseurl", "https://router.project-osrm.org/route/v1/driving"),
		PositionStackApiKey:  os.Getenv("positionstack_apikey"),
		PositionStackBaseUrl: getEnv("positionstack_baseurl", "http://api.positionstack.com/v1"),
		RedisAddress:         getEnv("redis_address", "localhost:6379"),
		Port:                 getEnv("port", "80"),
	}

	var err error
	if cfg.OpenWeatherTimeout, err = time.ParseDuration(getEnv("openweather_timeout", "10s")); err != nil {
		return nil, fmt.Errorf("openweather_timeout: %w", err)
	}
	if cfg.DisableRedis, err = getBool("disable_redis"); err != nil {
		return nil, err
	}
	if cfg.ReverseGeo, err = getBool("reverse_geo"); err != nil {
		return nil, err
	}
	if cfg.CandidateOffsets, err = parseOffsets(os.Getenv("candidate_offsets")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// parseOffsets reads a comma-separated list of Go durations, e.g. "-2h,-1h,1h,2h".
func parseOffsets(v string) ([]time.Duration, error) {
	var offsets []time.Duration
	for _, field := range strings.Split(v, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		d, err := time.ParseDuration(field)
		if err != nil {
			return nil, fmt.Errorf("candidate_offsets: %w", err)
		}
		offsets = append(offsets, d)
	}
	return offsets, nil
}
