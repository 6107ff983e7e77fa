package adapter

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/aelexs/auth-gateway/internal/auth"
	"github.com/aelexs/auth-gateway/internal/domain"
)

// smClient is the narrow consumer-defined interface for Secrets Manager
// operations. The *secretsmanager.Client satisfies it.
type smClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Compile-time check: AWSSecretSource implements auth.SecretSource.
var _ auth.SecretSource = (*AWSSecretSource)(nil)

// AWSSecretSource loads the token signing secret from AWS Secrets Manager.
// The secret is fetched on demand; callers resolve it once at startup, so
// no caching happens here.
type AWSSecretSource struct {
	sm       smClient
	secretID string
}

// NewAWSSecretSource creates a source that reads the secret named secretID.
func NewAWSSecretSource(sm smClient, secretID string) *AWSSecretSource {
	return &AWSSecretSource{sm: sm, secretID: secretID}
}

// SigningSecret fetches the secret value. An empty or missing secret fails
// with domain.ErrConfigRequired: the gateway must not start signing tokens
// with a blank key.
func (s *AWSSecretSource) SigningSecret(ctx context.Context) (domain.SecretBytes, error) {
	out, err := s.sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching signing secret %q: %w", s.secretID, err)
	}

	switch {
	case out.SecretString != nil && *out.SecretString != "":
		return domain.SecretBytes(*out.SecretString), nil
	case len(out.SecretBinary) > 0:
		return domain.SecretBytes(out.SecretBinary), nil
	default:
		return nil, fmt.Errorf("signing secret %q is empty: %w", s.secretID, domain.ErrConfigRequired)
	}
}
