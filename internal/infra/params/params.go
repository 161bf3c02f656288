// Package params implements the SecretSource domain interface over external
// secret stores: AWS SSM Parameter Store in deployment, environment variables
// for local development. A caching decorator avoids refetching immutable
// parameters within a process.
package params

import (
	"strings"

	"passport/config"

	"github.com/pkg/errors"
)

// AppSecretName returns the parameter name of the shared exchange secret for
// an app: "{prefix}/{appID}-app-secret".
func AppSecretName(prefix, appID string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + appID + "-app-secret"
}

// New builds the configured secret source, wrapped in the in-process cache.
func New(cfg *config.Config) (Source, error) {
	if cfg.Params == nil {
		return nil, errors.New("params config is not set")
	}

	switch cfg.Params.Provider {
	case "ssm":
		inner, err := NewSSMSource()
		if err != nil {
			return nil, err
		}

		return NewCachedSource(inner), nil
	case "env":
		return NewCachedSource(NewEnvSource()), nil
	default:
		return nil, errors.Errorf("unknown params provider: %s", cfg.Params.Provider)
	}
}
