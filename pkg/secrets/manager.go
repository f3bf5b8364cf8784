package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// ErrNotFound is returned when a secret does not exist in the backend.
var ErrNotFound = errors.New("secret not found")

// Manager defines the interface for secrets management
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// Close closes any resources held by the manager
	Close() error
}

// Config holds secrets manager configuration
type Config struct {
	Backend       string        // "env" or "aws"
	AWSRegion     string        // AWS region for Secrets Manager
	Prefix        string        // Prepended to every key in Secrets Manager
	CacheDuration time.Duration // How long to cache secrets
}

// NewManager creates a new secrets manager based on configuration
func NewManager(cfg Config) (Manager, error) {
	switch cfg.Backend {
	case "aws", "aws-secrets-manager":
		return NewAWSSecretsManager(cfg)
	case "", "env", "environment":
		return EnvironmentManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvironmentManager reads secrets from environment variables.
type EnvironmentManager struct{}

// GetSecret implements Manager.
func (EnvironmentManager) GetSecret(ctx context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// Close implements Manager.
func (EnvironmentManager) Close() error { return nil }

// AWSSecretsManager loads secrets from AWS Secrets Manager
type AWSSecretsManager struct {
	client secretsmanageriface.SecretsManagerAPI
	prefix string
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewAWSSecretsManager creates a client from the default AWS credential chain.
func NewAWSSecretsManager(cfg Config) (*AWSSecretsManager, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return newAWSSecretsManager(secretsmanager.New(sess), cfg), nil
}

func newAWSSecretsManager(client secretsmanageriface.SecretsManagerAPI, cfg Config) *AWSSecretsManager {
	ttl := cfg.CacheDuration
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSSecretsManager{
		client: client,
		prefix: cfg.Prefix,
		ttl:    ttl,
		cache:  make(map[string]cachedSecret),
	}
}

// GetSecret retrieves prefix+key from AWS Secrets Manager
func (m *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	if value, ok := m.cached(key); ok {
		return value, nil
	}

	result, err := m.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(m.prefix + key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", key)
	}

	m.store(key, *result.SecretString)
	return *result.SecretString, nil
}

// Close implements Manager. SDK sessions hold nothing to release.
func (m *AWSSecretsManager) Close() error {
	return nil
}

func (m *AWSSecretsManager) cached(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cache[key]
	if !ok || time.Now().After(c.expiresAt) {
		return "", false
	}
	return c.value, true
}

func (m *AWSSecretsManager) store(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[key] = cachedSecret{value: value, expiresAt: time.Now().Add(m.ttl)}
}
