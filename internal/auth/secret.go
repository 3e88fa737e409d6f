// Package auth validates bearer tokens against a shared HMAC secret.
package auth

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// secretTTL bounds how long a fetched secret is reused. A rotated secret
// may therefore be validated against for up to this long.
const secretTTL = 5 * time.Minute

// SecretProvider supplies the current shared signing secret.
type SecretProvider interface {
	GetSecret(ctx context.Context) (string, error)
}

// SSMClient abstracts the Parameter Store call for dependency inversion.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// cachedSecret is an immutable snapshot swapped atomically; a race that
// fetches twice is harmless since the result is idempotent.
type cachedSecret struct {
	value  string
	expiry time.Time
}

// SSMSecretProvider reads the signing secret from Parameter Store and
// caches it in process memory.
type SSMSecretProvider struct {
	client        SSMClient
	parameterName string
	cache         atomic.Pointer[cachedSecret]
	now           func() time.Time
}

// NewSSMSecretProvider creates a provider for the named parameter.
func NewSSMSecretProvider(client SSMClient, parameterName string) *SSMSecretProvider {
	return &SSMSecretProvider{
		client:        client,
		parameterName: parameterName,
		now:           time.Now,
	}
}

// GetSecret returns the cached secret, refreshing it from Parameter Store
// once the cache entry expires.
func (p *SSMSecretProvider) GetSecret(ctx context.Context) (string, error) {
	if cached := p.cache.Load(); cached != nil && p.now().Before(cached.expiry) {
		return cached.value, nil
	}

	output, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.parameterName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %q: %w", p.parameterName, err)
	}
	if output.Parameter == nil || output.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", p.parameterName)
	}

	secret := *output.Parameter.Value
	p.cache.Store(&cachedSecret{value: secret, expiry: p.now().Add(secretTTL)})
	return secret, nil
}
