// internal/adapters/out/gcs/export_source_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"invoicer/internal/application/migration"
)

// ExportSourceGCS reads JSON exports from gs://<bucket>/<prefix>/<name>.
type ExportSourceGCS struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

var _ migration.Source = (*ExportSourceGCS)(nil)

// ParseURL splits "gs://bucket/some/prefix" into bucket and prefix.
func ParseURL(raw string) (bucket, prefix string, err error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "gs://") {
		return "", "", fmt.Errorf("gcs: %q is not a gs:// url", raw)
	}
	rest := strings.TrimPrefix(raw, "gs://")
	bucket, prefix, _ = strings.Cut(rest, "/")
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return "", "", fmt.Errorf("gcs: bucket is empty in %q", raw)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

func NewExportSourceGCS(client *storage.Client, url string) (*ExportSourceGCS, error) {
	bucket, prefix, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &ExportSourceGCS{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

func (s *ExportSourceGCS) String() string {
	if s.Prefix == "" {
		return "gs://" + s.Bucket
	}
	return "gs://" + s.Bucket + "/" + s.Prefix
}

func (s *ExportSourceGCS) objectPath(name string) string {
	name = sanitizePathSegment(name)
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *ExportSourceGCS) Load(ctx context.Context, name string) ([]migration.Record, error) {
	if s == nil || s.Client == nil {
		return nil, errors.New("gcs: storage client is nil")
	}
	obj := s.objectPath(name)

	rd, err := s.Client.Bucket(s.Bucket).Object(obj).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", migration.ErrSourceNotFound, s.Bucket, obj)
		}
		return nil, fmt.Errorf("gcs: open gs://%s/%s: %w", s.Bucket, obj, err)
	}
	defer rd.Close()

	recs, err := migration.ParseRecords(rd)
	if err != nil {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.Bucket, obj, err)
	}
	return recs, nil
}

// sanitizePathSegment keeps an export name from escaping the prefix.
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return strings.Trim(s, ". ")
}
