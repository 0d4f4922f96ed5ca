package config

import "time"

// Config is the full configuration surface consumed by the session core and the
// dashd daemon.
type Config interface {
	EnvConfig
	GatewayConfig
	StorageConfig
	RouteConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

// GatewayConfig describes how to reach the remote auth gateway.
type GatewayConfig interface {
	GetGatewayBaseURL() string
	GetHTTPTimeout() time.Duration
}

// StorageConfig selects and parameterizes the durable session store backend.
type StorageConfig interface {
	GetDataFolder() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

// RouteConfig holds the guard's redirect targets.
type RouteConfig interface {
	GetLoginRoute() string
	GetHomeRoute() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	loadDotEnv()
	return mainConfig{}
}
