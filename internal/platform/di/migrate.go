// internal/platform/di/migrate.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	dbadapter "invoicer/internal/adapters/out/db"
	fsadapter "invoicer/internal/adapters/out/firestore"
	gcsadapter "invoicer/internal/adapters/out/gcs"
	mailadapter "invoicer/internal/adapters/out/mail"
	"invoicer/internal/application/migration"
	"invoicer/internal/domain/docstore"
	appcfg "invoicer/internal/infra/config"
	"invoicer/internal/infra/database"
	firestoreinfra "invoicer/internal/infra/firestore"
	"invoicer/internal/infra/secret"
)

// SourcePostgres selects the legacy database as the export source.
const SourcePostgres = "postgres"

// Closer releases what an opener created.
type Closer func() error

func noopCloser() error { return nil }

// OpenFirestoreStore is the migration's production store.
func OpenFirestoreStore(ctx context.Context, log *zap.Logger, projectID, credentialsFile string) (docstore.Store, Closer, error) {
	fs, err := firestoreinfra.NewClient(ctx, log, projectID, credentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return fsadapter.NewStoreFS(fs.Client), fs.Close, nil
}

// OpenExportSource picks the source from location:
//
//	gs://bucket/prefix   JSON exports in Cloud Storage
//	postgres             the legacy database (LEGACY_DATABASE_URL or LEGACY_DATABASE_SECRET)
//	anything else        a local directory of JSON exports
func OpenExportSource(ctx context.Context, log *zap.Logger, cfg *appcfg.Config, location, credentialsFile string) (migration.Source, Closer, error) {
	location = strings.TrimSpace(location)

	switch {
	case strings.HasPrefix(location, "gs://"):
		var opts []option.ClientOption
		if credentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.NewClient failed: %w", err)
		}
		src, err := gcsadapter.NewExportSourceGCS(client, location)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		log.Info("[di] export source: gcs", zap.String("url", src.String()))
		return src, client.Close, nil

	case location == SourcePostgres:
		dsn, err := legacyDSN(ctx, cfg, credentialsFile)
		if err != nil {
			return nil, nil, err
		}
		db, err := database.NewConnection(ctx, log, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("[di] export source: legacy postgres")
		return dbadapter.NewExportSourcePG(db.Client, "public"), db.Close, nil
	}

	if location == "" {
		return nil, nil, errors.New("export source is empty")
	}
	log.Info("[di] export source: directory", zap.String("dir", location))
	return migration.NewDirSource(location), noopCloser, nil
}

func legacyDSN(ctx context.Context, cfg *appcfg.Config, credentialsFile string) (string, error) {
	if cfg == nil {
		return "", errors.New("config is nil")
	}
	if dsn := strings.TrimSpace(cfg.LegacyDatabaseURL); dsn != "" {
		return dsn, nil
	}
	name := strings.TrimSpace(cfg.LegacyDatabaseSecret)
	if name == "" {
		return "", errors.New("postgres source needs LEGACY_DATABASE_URL or LEGACY_DATABASE_SECRET")
	}
	sm, err := secret.NewProviderSM(ctx, cfg.FirestoreProjectID, credentialsFile)
	if err != nil {
		return "", err
	}
	defer sm.Close()
	return sm.Access(ctx, name)
}

// ReportNotifier returns a SendGrid notifier, or nil when mail is not configured.
func ReportNotifier(cfg *appcfg.Config, log *zap.Logger, to string) migration.Notifier {
	if cfg == nil || strings.TrimSpace(cfg.SendGridAPIKey) == "" || strings.TrimSpace(to) == "" {
		return nil
	}
	return mailadapter.NewReportNotifier(mailadapter.NewSendGridClient(cfg.SendGridAPIKey, cfg.SendGridFrom, log), to)
}
