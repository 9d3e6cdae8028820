package pkgconfig

import "time"

// Config is the read-only view of configuration used by the application.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetString(key string) string
	GetArray(key string) []string
	GetDuration(key string) time.Duration
	GetStringMap(key string) map[string]string
	IsSet(key string) bool
	Close() error
}
