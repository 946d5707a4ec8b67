package app

import (
	"time"

	"github.com/dispatchengine/engine/internal/pkg/envutil"
)

// Config is every environment-derived setting the app needs to boot.
// Every field has a sane default so the process can start with an
// empty environment.
type Config struct {
	Addr string

	// AppKey is base64url-encoded (padded or not); App.New decodes it
	// once into the raw signing secret before handing it to token.New.
	AppKey   string
	TokenTTL time.Duration

	LogMode string

	DatabaseDSN string

	// RouteManifestPath, when set, names a YAML file of additional
	// declarative route bindings loaded on top of the built-in routes.
	RouteManifestPath string

	RedisAddr     string
	RedisPassword string

	OtelServiceName string
	OtelEnvironment string
}

// LoadConfig reads every setting from the process environment.
func LoadConfig() Config {
	return Config{
		Addr:              envutil.String("LISTEN_ADDR", "0.0.0.0:0"),
		AppKey:            envutil.String("APP_KEY", "-66WcolkZd8-oHejFFj1EUhxg3-8UWErNkgMqCwLDEI"),
		TokenTTL:          envutil.Seconds("TOKEN_TTL_SECONDS", 24*time.Hour),
		LogMode:           envutil.String("LOG_MODE", "development"),
		DatabaseDSN:       envutil.String("DATABASE_DSN", ""),
		RouteManifestPath: envutil.String("ROUTE_MANIFEST_PATH", ""),
		RedisAddr:         envutil.String("REDIS_ADDR", ""),
		RedisPassword:     envutil.String("REDIS_PASSWORD", ""),
		OtelServiceName:   envutil.String("OTEL_SERVICE_NAME", "dispatch-engine"),
		OtelEnvironment:   envutil.String("APP_ENV", "development"),
	}
}
