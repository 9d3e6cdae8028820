package pkgconfig

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata
var validate = validator.New()

const (
	DefaultPort               = 8000
	DefaultReadHeaderTimeout  = 10 * time.Second
	DefaultMaxMultipartMemory = 32 << 20
	DefaultTokenLifetime      = time.Hour
)

// ServerSettings is the validated view of the server.* keys.
type ServerSettings struct {
	Port               int               `validate:"min=1,max=65535"`
	APIPrefix          string            `validate:"omitempty,startswith=/"`
	DefaultHeaders     map[string]string `validate:"omitempty,dive,keys,required,endkeys,required"`
	StrictCORS         bool
	AllowedOrigins     []string
	RequestID          string        `validate:"oneof=uuid snowflake"`
	SnowflakeNode      int64         `validate:"min=-1,max=1023"`
	ReadHeaderTimeout  time.Duration `validate:"gt=0"`
	MaxMultipartMemory int64         `validate:"gt=0"`
	HealthPath         string        `validate:"omitempty,startswith=/"`
	MetricsPath        string        `validate:"omitempty,startswith=/"`
}

// AuthSettings is the validated view of the auth.* keys. Auth hooks are
// disabled when Secret is empty.
type AuthSettings struct {
	Secret        string            `validate:"omitempty,min=32"`
	TokenLifetime time.Duration     `validate:"gt=0"`
	Users         map[string]string `validate:"omitempty,dive,keys,required,endkeys,required"`
}

// Enabled reports whether a signing secret is configured.
func (a AuthSettings) Enabled() bool {
	return a.Secret != ""
}

// LoadServerSettings reads server.* keys, applies defaults and validates them.
func LoadServerSettings(cfg Config) (ServerSettings, error) {
	s := ServerSettings{
		Port:               int(cfg.GetInt("server.port")),
		APIPrefix:          cfg.GetString("server.api_prefix"),
		StrictCORS:         cfg.GetBool("server.cors.strict"),
		RequestID:          cfg.GetString("server.request_id"),
		SnowflakeNode:      -1,
		ReadHeaderTimeout:  cfg.GetDuration("server.read_header_timeout"),
		MaxMultipartMemory: cfg.GetInt("server.max_multipart_memory"),
		HealthPath:         cfg.GetString("server.health_path"),
		MetricsPath:        cfg.GetString("server.metrics_path"),
	}

	if cfg.IsSet("server.default_headers") {
		s.DefaultHeaders = cfg.GetStringMap("server.default_headers")
	}
	if cfg.IsSet("server.snowflake_node") {
		s.SnowflakeNode = cfg.GetInt("server.snowflake_node")
	}
	if cfg.IsSet("server.cors.allowed_origins") {
		s.AllowedOrigins = cfg.GetArray("server.cors.allowed_origins")
	}

	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.RequestID == "" {
		s.RequestID = "uuid"
	}
	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if s.MaxMultipartMemory == 0 {
		s.MaxMultipartMemory = DefaultMaxMultipartMemory
	}

	if err := validate.Struct(s); err != nil {
		return ServerSettings{}, fmt.Errorf("invalid server settings: %w", err)
	}

	return s, nil
}

// Addr returns the listen address for the configured port.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LoadAuthSettings reads auth.* keys, applies defaults and validates them.
func LoadAuthSettings(cfg Config) (AuthSettings, error) {
	a := AuthSettings{
		Secret:        cfg.GetString("auth.secret"),
		TokenLifetime: cfg.GetDuration("auth.token_lifetime"),
	}
	if cfg.IsSet("auth.users") {
		a.Users = cfg.GetStringMap("auth.users")
	}

	if a.TokenLifetime == 0 {
		a.TokenLifetime = DefaultTokenLifetime
	}

	if err := validate.Struct(a); err != nil {
		return AuthSettings{}, fmt.Errorf("invalid auth settings: %w", err)
	}

	return a, nil
}
