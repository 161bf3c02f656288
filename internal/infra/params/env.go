package params

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// envSource resolves parameter names against environment variables, for local
// development and tests. "/passport-dev/demo-app-secret" becomes
// "PASSPORT_DEV_DEMO_APP_SECRET".
type envSource struct{}

// NewEnvSource builds the environment-variable source.
func NewEnvSource() Source {
	return envSource{}
}

func (envSource) Get(_ context.Context, name string) (string, error) {
	key := envKey(name)

	value, ok := os.LookupEnv(key)
	if !ok {
		return "", errors.Errorf("parameter %s not set (env %s)", name, key)
	}

	return value, nil
}

func envKey(name string) string {
	key := strings.Trim(name, "/")
	key = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(key)

	return strings.ToUpper(key)
}
