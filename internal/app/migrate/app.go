// internal/app/migrate/app.go
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"invoicer/internal/adapters/out/memory"
	"invoicer/internal/application/migration"
	"invoicer/internal/domain/docstore"
)

// Exit codes of the migrate command.
const (
	ExitOK                 = 0
	ExitCredentialsMissing = 1
	ExitMigrationFailed    = 2
)

const (
	DefaultCredentials = "scripts/serviceAccountKey.json"
	DefaultSource      = "scripts/export"
)

type (
	// StoreOpener builds the target store. It is only called after the
	// credentials check has passed.
	StoreOpener func(ctx context.Context, projectID, credentialsFile string) (docstore.Store, func() error, error)

	// SourceOpener builds the export source named by --source.
	SourceOpener func(ctx context.Context, source, credentialsFile string) (migration.Source, func() error, error)

	// NotifierFactory returns a report notifier for the --report-to list, or nil.
	NotifierFactory func(to string) migration.Notifier
)

// Deps are the collaborators of the migrate command.
type Deps struct {
	Log         *zap.Logger
	OpenStore   StoreOpener
	OpenSource  SourceOpener
	NewNotifier NotifierFactory
	Now         func() time.Time

	Stdout io.Writer
	Stderr io.Writer
}

// NewApp builds the migrate CLI.
func NewApp(deps Deps) *cli.App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.OpenSource == nil {
		deps.OpenSource = func(_ context.Context, source, _ string) (migration.Source, func() error, error) {
			return migration.NewDirSource(source), func() error { return nil }, nil
		}
	}

	return &cli.App{
		Name:      "migrate",
		Usage:     "copy legacy invoice exports into Firestore",
		Writer:    deps.Stdout,
		ErrWriter: deps.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "credentials",
				Usage:   "service account key file",
				Value:   DefaultCredentials,
				EnvVars: []string{"FIRESTORE_CREDENTIALS_FILE"},
			},
			&cli.StringFlag{
				Name:    "project",
				Usage:   "Firestore project id (detected from the credentials when empty)",
				EnvVars: []string{"FIRESTORE_PROJECT_ID"},
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "export directory, gs://bucket/prefix, or \"postgres\"",
				Value: DefaultSource,
			},
			&cli.StringFlag{
				Name:  "plan",
				Usage: "plan file (yaml/json/toml) listing file, collection and transform per step",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "migrate into an in-memory store and print what would be written",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "parallel writes within a collection (1 = sequential, in file order)",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "report-to",
				Usage:   "comma separated recipients of the run report",
				EnvVars: []string{"MIGRATION_REPORT_TO"},
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, deps)
		},
	}
}

func run(c *cli.Context, deps Deps) error {
	ctx := c.Context
	log := deps.Log
	dryRun := c.Bool("dry-run")
	creds := c.String("credentials")

	// credentials first: nothing is opened when the key is missing
	if !dryRun {
		if err := migration.CheckCredentials(creds); err != nil {
			log.Error("[migrate] service account key not found", zap.String("path", creds))
			return cli.Exit(fmt.Sprintf("Service account key not found: %s", creds), ExitCredentialsMissing)
		}
	}

	if c.Int("concurrency") < 1 {
		return cli.Exit("--concurrency must be >= 1", ExitMigrationFailed)
	}

	plan, err := migration.LoadPlan(c.String("plan"))
	if err != nil {
		return failed(err)
	}

	src, closeSrc, err := deps.OpenSource(ctx, c.String("source"), creds)
	if err != nil {
		return failed(err)
	}
	defer closeQuietly(log, "source", closeSrc)

	var (
		store docstore.Store
		mem   *memory.Store
	)
	if dryRun {
		mem = memory.NewStore()
		store = mem
		log.Info("[migrate] dry run: writing to an in-memory store")
	} else {
		if deps.OpenStore == nil {
			return failed(errors.New("no store configured"))
		}
		s, closeStore, err := deps.OpenStore(ctx, c.String("project"), creds)
		if err != nil {
			return failed(err)
		}
		defer closeQuietly(log, "store", closeStore)
		store = s
	}

	p := migration.NewPipeline(store, src, log)
	p.Concurrency = c.Int("concurrency")
	if deps.Now != nil {
		p.Now = deps.Now
	}

	rep, runErr := p.Run(ctx, plan)

	if deps.NewNotifier != nil {
		if n := deps.NewNotifier(c.String("report-to")); n != nil {
			// ctx may already be cancelled; the report should still go out
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			if err := n.NotifyReport(nctx, rep); err != nil {
				log.Warn("[migrate] report notification failed", zap.Error(err))
			}
			cancel()
		}
	}

	fmt.Fprint(c.App.Writer, rep.Summary())
	if mem != nil {
		printDryRun(c.App.Writer, mem)
	}

	if runErr != nil {
		return failed(runErr)
	}
	fmt.Fprintln(c.App.Writer, "Migration complete.")
	return nil
}

func failed(err error) error {
	return cli.Exit(fmt.Sprintf("Migration failed: %v", err), ExitMigrationFailed)
}

func printDryRun(w io.Writer, mem *memory.Store) {
	fmt.Fprintln(w, "\ndry run, nothing was written. Would contain:")
	for _, col := range mem.Collections() {
		fmt.Fprintf(w, "  %-14s %d documents\n", col, mem.Count(col))
	}
}

func closeQuietly(log *zap.Logger, what string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		log.Warn("[migrate] close failed", zap.String("what", what), zap.Error(err))
	}
}
