package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/auth-gateway/internal/domain"
)

type stubSecretsManager struct {
	getSecretValueFn func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (s *stubSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return s.getSecretValueFn(ctx, params, optFns...)
}

var _ smClient = (*stubSecretsManager)(nil)

func TestAWSSecretSource_SigningSecret(t *testing.T) {
	t.Run("returns string secret", func(t *testing.T) {
		stub := &stubSecretsManager{
			getSecretValueFn: func(_ context.Context, params *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				assert.Equal(t, "gateway/signing-secret", *params.SecretId)
				return &secretsmanager.GetSecretValueOutput{
					SecretString: aws.String("super-secret-key"),
				}, nil
			},
		}
		source := NewAWSSecretSource(stub, "gateway/signing-secret")

		secret, err := source.SigningSecret(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []byte("super-secret-key"), secret.Expose())
	})

	t.Run("falls back to binary secret", func(t *testing.T) {
		stub := &stubSecretsManager{
			getSecretValueFn: func(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{
					SecretBinary: []byte{0x01, 0x02, 0x03},
				}, nil
			},
		}
		source := NewAWSSecretSource(stub, "gateway/signing-secret")

		secret, err := source.SigningSecret(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, secret.Expose())
	})

	t.Run("empty secret fails with ErrConfigRequired", func(t *testing.T) {
		stub := &stubSecretsManager{
			getSecretValueFn: func(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				return &secretsmanager.GetSecretValueOutput{}, nil
			},
		}
		source := NewAWSSecretSource(stub, "gateway/signing-secret")

		_, err := source.SigningSecret(context.Background())

		assert.ErrorIs(t, err, domain.ErrConfigRequired)
	})

	t.Run("fetch error wraps with secret name", func(t *testing.T) {
		stub := &stubSecretsManager{
			getSecretValueFn: func(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				return nil, errors.New("access denied")
			},
		}
		source := NewAWSSecretSource(stub, "gateway/signing-secret")

		_, err := source.SigningSecret(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), `"gateway/signing-secret"`)
	})
}
