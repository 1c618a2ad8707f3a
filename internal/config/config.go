package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	// DataPath is the slot table file. Created with an empty table when
	// missing.
	DataPath string

	// Seed fixes the engine's random source. Zero means seed from the
	// wall clock.
	Seed int64

	// HeavyLoad is the initial heavy-load setting used only when DataPath
	// does not exist yet; once the file exists its own settings win.
	HeavyLoad bool

	RedisAddr     string
	RedisPassword string

	// AdminKeyHash is a bcrypt hash guarding the /api/admin surface.
	// Empty leaves the surface open, which is the usual lab setup.
	AdminKeyHash string

	DevLogging bool
}

func Load() Config {

	cfg := Config{

		AppPort: envOr("APP_PORT", "3000"),

		DataPath: envOr("DATA_PATH", "data/slots.json"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AdminKeyHash: os.Getenv("ADMIN_KEY_HASH"),

		HeavyLoad:  envBool("HEAVY_LOAD"),
		DevLogging: envBool("DEV_LOGGING"),
	}

	if raw := os.Getenv("SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}

	return cfg

}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
