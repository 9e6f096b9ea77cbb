package config

import "strings"

type StoreBackend string

const (
	StoreBackendFile   StoreBackend = "file"
	StoreBackendRedis  StoreBackend = "redis"
	StoreBackendMemory StoreBackend = "memory"
)

type StoreConfig interface {
	GetStoreBackend() StoreBackend
	GetStateFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreBackend() StoreBackend {
	switch b := StoreBackend(strings.ToLower(GetEnv("COMMA_AUTH_STORE", string(StoreBackendFile)))); b {
	case StoreBackendFile, StoreBackendRedis, StoreBackendMemory:
		return b
	}
	return StoreBackendFile
}

// GetStateFile returns an explicit state file path. Empty means the XDG state directory.
func (Store) GetStateFile() string {
	return GetEnv("COMMA_AUTH_STATE_FILE", "")
}

func (Store) GetRedisAddr() string {
	return GetEnv("COMMA_AUTH_REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("COMMA_AUTH_REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return GetInt("COMMA_AUTH_REDIS_DB", 0)
}

func (Store) GetRedisPrefix() string {
	return GetEnv("COMMA_AUTH_REDIS_PREFIX", "comma-auth")
}
