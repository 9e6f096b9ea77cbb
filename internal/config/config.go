package config

type Config interface {
	EnvConfig
	ServiceConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Service
	Store
}

func New() Config {
	return mainConfig{}
}
