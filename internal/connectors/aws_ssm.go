package connectors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/systmms/secretwire/pkg/connector"
)

// SSMAPI defines the AWS SSM Parameter Store operations the connector
// uses. Narrowed from the SDK client so tests can inject mocks.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMConfig holds AWS SSM Parameter Store connector configuration.
type SSMConfig struct {
	// Region defaults to us-east-1.
	Region string

	// Endpoint overrides the API endpoint, for LocalStack and tests.
	Endpoint string

	// PathPrefix is the parameter path prefix, e.g. "/myapp". A lookup of
	// (db_credentials, password) becomes /myapp/db_credentials/password.
	PathPrefix string

	// WithDecryption controls SecureString decryption. Defaults to true.
	WithDecryption *bool

	// Static credentials for LocalStack and tests.
	AccessKeyID     string
	SecretAccessKey string
}

// SSMConnector fetches fields from AWS SSM Parameter Store. Each
// (secret, field) pair is one parameter under the configured path.
type SSMConnector struct {
	name       string
	client     SSMAPI
	config     SSMConfig
	decryption bool
}

// SSMOption is a functional option for the connector.
type SSMOption func(*SSMConnector)

// WithSSMClient sets a custom client (for testing).
func WithSSMClient(client SSMAPI) SSMOption {
	return func(c *SSMConnector) {
		c.client = client
	}
}

// NewSSMConnector creates an AWS SSM Parameter Store connector.
func NewSSMConnector(name string, cfg SSMConfig, opts ...SSMOption) (*SSMConnector, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	c := &SSMConnector{name: name, config: cfg, decryption: true}
	if cfg.WithDecryption != nil {
		c.decryption = *cfg.WithDecryption
	}
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

	var clientOpts []func(*ssm.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	c.client = ssm.NewFromConfig(awsCfg, clientOpts...)

	return c, nil
}

// Name implements connector.Connector.
func (c *SSMConnector) Name() string {
	return c.name
}

// Fetch implements connector.Connector.
func (c *SSMConnector) Fetch(ctx context.Context, secretName, fieldName string) (connector.Value, error) {
	paramName := c.parameterName(secretName, fieldName)

	result, err := c.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(c.decryption),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return connector.Value{}, connector.NotFoundError{
				Connector:  c.name,
				SecretName: secretName,
				FieldName:  fieldName,
			}
		}
		return connector.Value{}, connector.UnavailableError{Connector: c.name, Err: err}
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return connector.Value{}, connector.NotFoundError{
			Connector:  c.name,
			SecretName: secretName,
			FieldName:  fieldName,
		}
	}

	return connector.Value{
		Data:   []byte(*result.Parameter.Value),
		Source: fmt.Sprintf("aws-ssm:%s@%s", paramName, c.config.Region),
	}, nil
}

// Validate implements connector.Connector: fetching a known-absent probe
// parameter verifies credentials without requiring any real data.
func (c *SSMConnector) Validate(ctx context.Context) error {
	probe := c.parameterName("secretwire-probe", "probe")
	_, err := c.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(probe),
		WithDecryption: aws.Bool(false),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil
		}
		return connector.UnavailableError{Connector: c.name, Err: err}
	}
	return nil
}

func (c *SSMConnector) parameterName(secretName, fieldName string) string {
	prefix := strings.TrimSuffix(c.config.PathPrefix, "/")
	name := prefix + "/" + secretName
	if fieldName != "" {
		name += "/" + fieldName
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}
