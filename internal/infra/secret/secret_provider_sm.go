// internal/infra/secret/secret_provider_sm.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

var (
	ErrNotConfigured = errors.New("secret: provider not configured")
	ErrEmptyPayload  = errors.New("secret: empty payload")
)

// ProviderSM reads secret payloads from Google Secret Manager.
type ProviderSM struct {
	sm        *secretmanager.Client
	projectID string
}

// NewProviderSM creates a Secret Manager client for projectID.
func NewProviderSM(ctx context.Context, projectID string, credentialsFile string) (*ProviderSM, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}

	var opts []option.ClientOption
	if f := strings.TrimSpace(credentialsFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}

	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &ProviderSM{sm: c, projectID: pid}, nil
}

// Access returns the latest version of secretID, trimmed.
// A fully qualified "projects/..." name is used as-is.
func (p *ProviderSM) Access(ctx context.Context, secretID string) (string, error) {
	if p == nil || p.sm == nil {
		return "", ErrNotConfigured
	}
	secretID = strings.TrimSpace(secretID)
	if secretID == "" {
		return "", fmt.Errorf("%w: secret id is empty", ErrNotConfigured)
	}

	name := secretID
	if !strings.HasPrefix(name, "projects/") {
		name = "projects/" + p.projectID + "/secrets/" + secretID + "/versions/latest"
	}

	resp, err := p.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secret: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil || len(resp.Payload.Data) == 0 {
		return "", fmt.Errorf("%w (%s)", ErrEmptyPayload, name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

// Close releases the client.
func (p *ProviderSM) Close() error {
	if p == nil || p.sm == nil {
		return nil
	}
	return p.sm.Close()
}
