package connectors

import (
	"context"
	"fmt"
	"time"

	akeyless "github.com/akeylesslabs/akeyless-go/v3"
)

// akeylessSDKClient implements AkeylessAPI on the official SDK.
type akeylessSDKClient struct {
	apiClient *akeyless.APIClient
	config    AkeylessConfig
}

func newAkeylessSDKClient(cfg AkeylessConfig) *akeylessSDKClient {
	configuration := akeyless.NewConfiguration()
	configuration.Servers = []akeyless.ServerConfiguration{
		{URL: cfg.GatewayURL},
	}

	return &akeylessSDKClient{
		apiClient: akeyless.NewAPIClient(configuration),
		config:    cfg,
	}
}

// Authenticate implements AkeylessAPI using api_key authentication.
func (c *akeylessSDKClient) Authenticate(ctx context.Context) (string, time.Duration, error) {
	authBody := akeyless.NewAuthWithDefaults()
	authBody.SetAccessId(c.config.AccessID)
	authBody.SetAccessKey(c.config.AccessKey)

	authRes, _, err := c.apiClient.V2Api.Auth(ctx).Body(*authBody).Execute()
	if err != nil {
		return "", 0, fmt.Errorf("api key authentication failed: %w", err)
	}

	// Akeyless tokens last about 30 minutes; cache for 25 to stay safe.
	return authRes.GetToken(), 25 * time.Minute, nil
}

// GetSecretValue implements AkeylessAPI.
func (c *akeylessSDKClient) GetSecretValue(ctx context.Context, token, path string) (string, error) {
	body := akeyless.NewGetSecretValue([]string{path})
	body.SetToken(token)

	res, _, err := c.apiClient.V2Api.GetSecretValue(ctx).Body(*body).Execute()
	if err != nil {
		return "", err
	}

	// The response maps path -> value.
	value, ok := res[path]
	if !ok {
		return "", fmt.Errorf("secret '%s' not found", path)
	}
	return fmt.Sprintf("%v", value), nil
}
