package apiclient

import (
	"context"

	apiv1 "github.com/abiibaabi/grr/api/v1"
)

// ListAPIKeys returns every key, optionally filtered by role.
func (c *Client) ListAPIKeys(ctx context.Context, role string) ([]apiv1.APIKeyView, error) {
	return all[apiv1.APIKeyView](ctx, c, "ListAPIKeys", apiv1.ListAPIKeysArgs{Role: role})
}

func (c *Client) CreateAPIKey(ctx context.Context, args apiv1.CreateAPIKeyArgs) (*apiv1.APIKeySecretResult, error) {
	return ptr(one[apiv1.APIKeySecretResult](ctx, c, "CreateAPIKey", args))
}

func (c *Client) SetAPIKeyStatus(ctx context.Context, keyID string, enabled bool) (*apiv1.APIKeyView, error) {
	return ptr(one[apiv1.APIKeyView](ctx, c, "SetAPIKeyStatus", apiv1.SetAPIKeyStatusArgs{
		KeyID:   keyID,
		Enabled: enabled,
	}))
}

func (c *Client) RotateAPIKey(ctx context.Context, keyID string) (*apiv1.APIKeySecretResult, error) {
	return ptr(one[apiv1.APIKeySecretResult](ctx, c, "RotateAPIKey", apiv1.KeyIDArgs{KeyID: keyID}))
}
