// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	httpin "invoicer/internal/adapters/in/http"
	"invoicer/internal/adapters/in/http/middleware"
	dsadapter "invoicer/internal/adapters/out/docstore"
	fsadapter "invoicer/internal/adapters/out/firestore"
	pdfadapter "invoicer/internal/adapters/out/pdf"
	usecase "invoicer/internal/application/usecase"
	"invoicer/internal/domain/docstore"
	appcfg "invoicer/internal/infra/config"
	firestoreinfra "invoicer/internal/infra/firestore"
)

// Container owns the API's clients and wired usecases.
type Container struct {
	Config *appcfg.Config
	Log    *zap.Logger

	// Clients (owned; Close-managed)
	Firestore    *firestoreinfra.ClientWrapper
	FirebaseAuth *firebaseauth.Client

	Store     docstore.Store
	InvoiceUC *usecase.InvoiceUsecase
	PDF       *pdfadapter.InvoiceRenderer
	Gate      middleware.Gate
}

// NewContainer connects Firestore (strict) and, in firebase auth mode,
// Firebase Auth (strict as well, since the gate cannot work without it).
func NewContainer(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{Config: cfg, Log: log}

	credFile := cfg.CredentialsFile()
	if credFile != "" {
		log.Info("[di] using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	} else {
		log.Info("[di] using Application Default Credentials")
	}

	// 1) Firestore
	fs, err := firestoreinfra.NewClient(ctx, log, cfg.FirestoreProjectID, credFile)
	if err != nil {
		return nil, fmt.Errorf("di: %w", err)
	}
	c.Firestore = fs
	c.Store = fsadapter.NewStoreFS(fs.Client)

	// 2) Gate
	gate, err := c.buildGate(ctx, credFile)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Gate = gate

	// 3) Repositories + usecases
	c.InvoiceUC = usecase.NewInvoiceUsecase(
		dsadapter.NewInvoiceRepositoryDS(c.Store),
		dsadapter.NewInvoiceItemRepositoryDS(c.Store),
		log,
	)
	c.PDF = pdfadapter.NewInvoiceRenderer()

	return c, nil
}

func (c *Container) buildGate(ctx context.Context, credFile string) (middleware.Gate, error) {
	switch c.Config.AuthMode {
	case appcfg.AuthModeNone:
		c.Log.Warn("[di] AUTH_MODE=none: the API is open to anyone who can reach it")
		return middleware.OpenGate{}, nil

	case appcfg.AuthModeFirebase:
		var opts []option.ClientOption
		if credFile != "" {
			opts = append(opts, option.WithCredentialsFile(credFile))
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: c.Config.FirebaseProjectID}, opts...)
		if err != nil {
			return nil, fmt.Errorf("di: firebase app init failed: %w", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("di: firebase auth init failed: %w", err)
		}
		c.FirebaseAuth = authClient
		c.Log.Info("[di] firebase auth initialized", zap.String("project", c.Config.FirebaseProjectID))
		return &middleware.FirebaseGate{Verifier: authClient}, nil

	case appcfg.AuthModeCode, "":
		if strings.TrimSpace(c.Config.AccessCode) == "" {
			c.Log.Warn("[di] ACCESS_CODE is empty: every gated request will be rejected")
		}
		return &middleware.CodeGate{Code: c.Config.AccessCode}, nil
	}
	return nil, fmt.Errorf("di: unknown AUTH_MODE %q", c.Config.AuthMode)
}

// RouterDeps returns what httpin.NewRouter needs.
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		InvoiceUC:         c.InvoiceUC,
		PDF:               c.PDF,
		Gate:              c.Gate,
		CORSAllowedOrigin: c.Config.CORSAllowedOrigin,
		Logger:            c.Log,
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Firestore != nil {
		return c.Firestore.Close()
	}
	return nil
}

// redactPath keeps only the file name of a credentials path in logs.
func redactPath(p string) string {
	p = strings.TrimSpace(p)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return ".../" + p[i+1:]
	}
	return p
}
