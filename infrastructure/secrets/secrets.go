// Package secrets resolves secret-bearing configuration values at startup.
package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// EnvProvider reads secrets from the process environment. Values from an
// optional .env file are visible once config.Load has run.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	value, ok := p.lookup(name)
	if !ok || value == "" {
		return "", fmt.Errorf("secret %s is not set", name)
	}
	return value, nil
}

// GetSecretValueAPI is the subset of the Secrets Manager client used here.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider reads string secrets named <prefix><name>.
type SecretsManagerProvider struct {
	client GetSecretValueAPI
	prefix string
}

func NewSecretsManagerProvider(client GetSecretValueAPI, prefix string) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client, prefix: prefix}
}

func (p *SecretsManagerProvider) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.prefix + name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s has no string value", name)
	}
	return *out.SecretString, nil
}
