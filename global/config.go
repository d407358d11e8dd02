package global

import (
	"os"
	"time"
)

// Config is the process configuration, read once from the environment.
type Config struct {
	GatewayID string
	HTTPAddr  string

	MongoURI string
	MongoDB  string

	RedisAddr string // empty disables the presence mirror
	NatsURL   string // empty disables the event firehose

	JWTSecret string

	SweepEvery time.Duration
	UnauthTTL  time.Duration // 0 = unauthenticated connections never expire
}

func Load() Config {
	return Config{
		GatewayID:  envOr("GATEWAY_ID", "link_gw-1"),
		HTTPAddr:   envOr("HTTP_ADDR", ":8080"),
		MongoURI:   envOr("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:    envOr("MONGODB_DB", "linkim"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		NatsURL:    os.Getenv("NATS_URL"),
		JWTSecret:  envOr("JWT_SECRET", "dev-secret-change-me"),
		SweepEvery: durationOr("SWEEP_EVERY", 30*time.Second),
		UnauthTTL:  durationOr("UNAUTH_TTL", 0),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
