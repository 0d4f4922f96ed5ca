package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "FOLDER"
	gatewayURLVar = "AUTH_GATEWAY_URL"
)

func loadDotEnv() {
	// Missing .env is fine, real env vars still apply
	_ = godotenv.Load()
}

type EnvVars struct{}

var _ Config = mainConfig{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Savings Dashboard")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetGatewayBaseURL returns the base URL of the remote auth gateway
// (e.g., "https://api.example.com"). All auth endpoints hang off this path.
func (EnvVars) GetGatewayBaseURL() string {
	return GetEnv(gatewayURLVar, "http://localhost:3000")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	seconds := GetEnv("HTTP_TIMEOUT_SECONDS", "15")
	d, err := time.ParseDuration(seconds + "s")
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetRedisAddr returns the redis address for the durable session store.
// Empty means the file-backed store is used instead.
func (EnvVars) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (EnvVars) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "dash:session:")
}

func (EnvVars) GetLoginRoute() string {
	return GetEnv("LOGIN_ROUTE", "/login")
}

func (EnvVars) GetHomeRoute() string {
	return GetEnv("HOME_ROUTE", "/dashboard")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
