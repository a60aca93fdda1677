// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ClientWrapper wraps the Firestore client together with its project.
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient initializes a Firestore client.
// An empty credentialsFile falls back to Application Default Credentials.
func NewClient(ctx context.Context, log *zap.Logger, projectID string, credentialsFile string) (*ClientWrapper, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	var opts []option.ClientOption
	if f := strings.TrimSpace(credentialsFile); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	log.Info("[firestore] connected", zap.String("project", projectID), zap.Bool("credentials_file", len(opts) > 0))
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping does a cheap read since Firestore has no ping API.
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return fmt.Errorf("firestore client is nil")
	}
	_, err := cw.Client.Collections(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// Close closes the Firestore client.
func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
