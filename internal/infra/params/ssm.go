package params

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pkg/errors"
)

// ssmSource fetches parameters from AWS SSM Parameter Store. SecureString
// parameters are decrypted on read.
type ssmSource struct {
	client *ssm.Client
}

// NewSSMSource builds an SSM-backed source using the default AWS credential
// chain (instance role in deployment).
func NewSSMSource() (Source, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	return &ssmSource{client: ssm.NewFromConfig(awsCfg)}, nil
}

func (s *ssmSource) Get(ctx context.Context, name string) (string, error) {
	withDecryption := true

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to fetch parameter %s", name)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.Errorf("parameter %s has no value", name)
	}

	return *out.Parameter.Value, nil
}
