// Package config loads the process configuration from a YAML file with an
// environment-variable overlay. The loaded *Config is constructed once in main
// and injected into every component, so a missing configuration is a startup
// failure rather than a mid-request surprise.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultPath = "."

// Role selects which surface the binary serves.
const (
	// RoleCentral runs the identity app: issues and redeems auth codes in
	// addition to the token endpoints.
	RoleCentral = "central"
	// RoleSatellite runs a consumer app backend: exchanges codes against the
	// central app and manages its own token pairs.
	RoleSatellite = "satellite"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *PostgresConfig `json:"postgres" yaml:"postgres"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Params configures the secret store the signing keys and app secrets
	// are fetched from.
	Params *ParamsConfig `json:"params" yaml:"params"`

	// Central configures how satellite deployments reach the central
	// identity app. Unused when Auth.Role is "central".
	Central *CentralConfig `json:"central" yaml:"central"`
}

// PostgresConfig holds connection settings for the token and auth-code stores.
type PostgresConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	Username        string        `json:"username" yaml:"username"`
	Password        string        `json:"password" yaml:"password"`
	Database        string        `json:"database" yaml:"database"`
	SSLMode         string        `json:"sslMode" yaml:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
}

// AuthConfig is the per-app authentication configuration: the app's identity,
// token lifetimes and key references.
type AuthConfig struct {
	// AppID identifies the consuming application. It is the JWT issuer claim
	// and the key for app-secret lookup.
	AppID string `json:"appId" yaml:"appId"`

	// Role is "central" or "satellite".
	Role string `json:"role" yaml:"role"`

	AccessTokenLifetime  time.Duration `json:"accessTokenLifetime" yaml:"accessTokenLifetime"`
	RefreshTokenLifetime time.Duration `json:"refreshTokenLifetime" yaml:"refreshTokenLifetime"`
	AuthCodeLifetime     time.Duration `json:"authCodeLifetime" yaml:"authCodeLifetime"`

	// RotationThreshold is the remaining-lifetime fraction below which a
	// refresh token is rotated during refresh. Defaults to 0.2.
	RotationThreshold float64 `json:"rotationThreshold" yaml:"rotationThreshold"`

	// JWTPrivateKeyParam is the secret-store parameter name holding the
	// RS256 private signing key (PEM).
	JWTPrivateKeyParam string `json:"jwtPrivateKeyParam" yaml:"jwtPrivateKeyParam"`

	// JWTPublicKey is the RS256 public verification key (PEM), safe to hold
	// directly in configuration.
	JWTPublicKey string `json:"jwtPublicKey" yaml:"jwtPublicKey"`
}

// ParamsConfig selects and scopes the secret store.
type ParamsConfig struct {
	// Provider is "ssm" (AWS Parameter Store) or "env" (environment
	// variables, local development only).
	Provider string `json:"provider" yaml:"provider"`

	// Prefix namespaces app-secret parameters, e.g. "/passport-staging".
	// The secret for app X lives at "{Prefix}/X-app-secret".
	Prefix string `json:"prefix" yaml:"prefix"`
}

// CentralConfig locates the central identity app for satellite deployments.
type CentralConfig struct {
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`

	// VerifyTimeout bounds the code-verification HTTP call.
	VerifyTimeout time.Duration `json:"verifyTimeout" yaml:"verifyTimeout"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

const (
	defaultRotationThreshold = 0.2
	defaultAuthCodeLifetime  = time.Minute
	defaultVerifyTimeout     = 10 * time.Second
)

// LoadWithEnv loads .yaml files through koanf with env-var overrides.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to a dotted path and align each segment
			// with existing YAML keys.
			// Example: AUTH_APPID -> auth.appId (not auth.appid)
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

// New loads the configuration and applies defaults and validation.
func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Auth == nil {
		return errors.New("auth config is not set")
	}
	if cfg.Auth.AppID == "" {
		return errors.New("auth.appId must be provided")
	}

	switch cfg.Auth.Role {
	case RoleCentral, RoleSatellite:
	case "":
		cfg.Auth.Role = RoleSatellite
	default:
		return errors.Errorf("unknown auth.role: %s", cfg.Auth.Role)
	}

	if cfg.Auth.RotationThreshold <= 0 || cfg.Auth.RotationThreshold >= 1 {
		cfg.Auth.RotationThreshold = defaultRotationThreshold
	}
	if cfg.Auth.AuthCodeLifetime <= 0 {
		cfg.Auth.AuthCodeLifetime = defaultAuthCodeLifetime
	}

	if cfg.Auth.Role == RoleSatellite {
		if cfg.Central == nil || cfg.Central.BaseURL == "" {
			return errors.New("central.baseUrl must be provided for satellite deployments")
		}
		if cfg.Central.VerifyTimeout <= 0 {
			cfg.Central.VerifyTimeout = defaultVerifyTimeout
		}
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
