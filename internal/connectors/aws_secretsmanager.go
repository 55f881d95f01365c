package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/secretwire/pkg/connector"
)

// SecretsManagerAPI defines the AWS Secrets Manager operations the
// connector uses. Narrowed from the SDK client so tests can inject mocks.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// SecretsManagerConfig holds AWS Secrets Manager connector configuration.
type SecretsManagerConfig struct {
	// Region defaults to us-east-1.
	Region string

	// Endpoint overrides the API endpoint, for LocalStack and tests.
	Endpoint string

	// Prefix is prepended to the secret name when addressing the store.
	Prefix string

	// Static credentials for LocalStack and tests. The default AWS
	// credential chain is used when both are empty.
	AccessKeyID     string
	SecretAccessKey string
}

// SecretsManagerConnector fetches fields from AWS Secrets Manager. One
// logical secret maps to one store secret holding a JSON object; the
// field name selects a key of that object.
type SecretsManagerConnector struct {
	name   string
	client SecretsManagerAPI
	config SecretsManagerConfig
}

// SecretsManagerOption is a functional option for the connector.
type SecretsManagerOption func(*SecretsManagerConnector)

// WithSecretsManagerClient sets a custom client (for testing).
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(c *SecretsManagerConnector) {
		c.client = client
	}
}

// NewSecretsManagerConnector creates an AWS Secrets Manager connector.
func NewSecretsManagerConnector(name string, cfg SecretsManagerConfig, opts ...SecretsManagerOption) (*SecretsManagerConnector, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	c := &SecretsManagerConnector{name: name, config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.client != nil {
		return c, nil
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	c.client = secretsmanager.NewFromConfig(awsCfg, clientOpts...)

	return c, nil
}

// Name implements connector.Connector.
func (c *SecretsManagerConnector) Name() string {
	return c.name
}

// Fetch implements connector.Connector. The store secret is read once
// per call; fields come out of its JSON payload. An empty field name
// returns the raw payload.
func (c *SecretsManagerConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	secretID := c.config.Prefix + secretName

	result, err := c.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  c.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		return connector.Value{}, connector.UnavailableError{Connector: c.name, Err: err}
	}

	var payload []byte
	switch {
	case result.SecretString != nil:
		payload = []byte(*result.SecretString)
	case result.SecretBinary != nil:
		payload = result.SecretBinary
	default:
		return connector.Value{}, connector.NotFoundError{
			Connector:  c.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}

	source := fmt.Sprintf("aws-secretsmanager:%s/%s@%s", secretID, fieldName, c.config.Region)
	if fieldName == "" {
		return connector.Value{Data: payload, Source: source}, nil
	}

	value, err := extractJSONField(payload, fieldName)
	if err != nil {
		return connector.Value{}, connector.UnavailableError{
			Connector: c.name,
			Err:       fmt.Errorf("secret '%s' is not a JSON object: %w", secretID, err),
		}
	}
	if value == nil {
		return connector.Value{}, connector.NotFoundError{
			Connector:  c.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}
	return connector.Value{Data: value, Source: source}, nil
}

// Validate implements connector.Connector: a ListSecrets with limit 1
// verifies credentials and reachability.
func (c *SecretsManagerConnector) Validate(ctx context.Context) error {
	_, err := c.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return connector.UnavailableError{Connector: c.name, Err: err}
	}
	return nil
}

// extractJSONField pulls one top-level key out of a JSON object payload.
// Returns (nil, nil) when the key is absent.
func extractJSONField(payload []byte, field string) ([]byte, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(payload, &object); err != nil {
		return nil, err
	}

	raw, ok := object[field]
	if !ok {
		return nil, nil
	}

	// Strings are unquoted; anything else keeps its JSON encoding.
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return []byte(str), nil
	}
	return raw, nil
}
