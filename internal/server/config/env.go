package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHTTPAddr       = "HTTP_ADDR"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvJWTSecret      = "JWT_SECRET"
	EnvJWTExpiresIn   = "JWT_EXPIRES_IN"
	EnvBcryptRounds   = "BCRYPT_ROUNDS"
	EnvAppEnv         = "APP_ENV"
	EnvLogLevel       = "LOG_LEVEL"
	EnvS3AccessKey    = "S3_ACCESS_KEY"
	EnvS3SecretKey    = "S3_SECRET_KEY"
	EnvS3Bucket       = "S3_BUCKET"
	EnvS3Region       = "S3_REGION"
	EnvS3Endpoint     = "S3_ENDPOINT"
	EnvS3PublicBase   = "S3_PUBLIC_BASE_URL"
	EnvTrustedProxies = "TRUSTED_PROXIES"
	productionEnvName = "production"
)

// loadDotEnv is a seam for godotenv.Load; a missing .env file is not an error.
var loadDotEnv = func() {
	_ = godotenv.Load()
}

// parseEnv overlays values found through lookup (os.LookupEnv in production).
// Malformed numeric or duration values panic, like malformed flags do.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str(EnvHTTPAddr, &config.EndpointAddrHTTP)
	str(EnvDatabaseURL, &config.DatabaseDSN)
	str(EnvJWTSecret, &config.SecretKey)
	str(EnvLogLevel, &config.LogLevel)
	str(EnvS3AccessKey, &config.S3AccessKey)
	str(EnvS3SecretKey, &config.S3SecretKey)
	str(EnvS3Bucket, &config.S3Bucket)
	str(EnvS3Region, &config.S3Region)
	str(EnvS3Endpoint, &config.S3BaseEndpoint)
	str(EnvS3PublicBase, &config.S3PublicBaseURL)

	if v, ok := lookup(EnvTrustedProxies); ok && v != "" {
		config.TrustedProxies = strings.Split(v, ",")
	}

	if v, ok := lookup(EnvJWTExpiresIn); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvJWTExpiresIn, err))
		}
		config.TokenValidityDuration = d
	}

	if v, ok := lookup(EnvBcryptRounds); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvBcryptRounds, err))
		}
		config.BcryptRounds = n
	}

	if v, ok := lookup(EnvAppEnv); ok && v != "" {
		config.Production = strings.EqualFold(v, productionEnvName)
	}
}
