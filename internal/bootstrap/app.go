package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "docchat-backend/internal/auth"
	"docchat-backend/internal/billing"
	"docchat-backend/internal/chat"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/extract"
	"docchat-backend/internal/llm"
	openai "docchat-backend/internal/llm/openai"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/server"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/storage/object"
	localstore "docchat-backend/internal/shared/storage/object/local"
	s3store "docchat-backend/internal/shared/storage/object/s3"
	"docchat-backend/internal/transcripts"
	"docchat-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	DocumentsRepo   documents.Repo
	TranscriptsRepo transcripts.Repo
	UsersRepo       users.Repo

	DocumentsService *documents.Service
	ChatService      *chat.Service
	UsersService     *users.Service

	DocumentsHandler *documents.Handler
	ChatHandler      *chat.Handler
	UsersHandler     *users.Handler
	BillingHandler   *billing.Handler
	GoogleAuth       *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		ChatHandler:     app.ChatHandler,
		UserHandler:     app.UsersHandler,
		BillingHandler:  app.BillingHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var docRepo documents.Repo
	var trRepo transcripts.Repo
	var userRepo users.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		trRepo = &transcripts.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		trRepo = transcripts.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	llmTimeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	if cfg.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel, llmTimeout)
		if err != nil {
			if !isDevLike(cfg.Env) {
				return err
			}
			log.Printf("bootstrap: openai client unavailable; using placeholder: %v", err)
		} else {
			llmClient = openaiClient
		}
	}

	docSvc := &documents.Service{
		Store:       app.Store,
		Repo:        docRepo,
		Extract:     extract.ExtractTextFromBytes,
		UploadLimit: cfg.UploadLimit,
	}
	chatSvc := chat.NewService(docRepo, trRepo, llmClient, llmTimeout)
	userSvc := users.NewService(userRepo)

	var billingHandler *billing.Handler
	if strings.TrimSpace(cfg.StripeSecretKey) != "" {
		stripeClient, err := billing.NewStripeClient(cfg.StripeSecretKey, 30*time.Second)
		if err != nil {
			return err
		}
		billingHandler = billing.NewHandler(stripeClient, cfg.StripePricePro, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	} else {
		// Billing routes still exist so the free plan responds; pro checkout
		// reports billing_not_configured.
		billingHandler = billing.NewHandler(nil, cfg.StripePricePro, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	}

	googleAuthSvc := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		userSvc,
	)

	app.DocumentsRepo = docRepo
	app.TranscriptsRepo = trRepo
	app.UsersRepo = userRepo
	app.DocumentsService = docSvc
	app.ChatService = chatSvc
	app.UsersService = userSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ChatHandler = chat.NewHandler(chatSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.BillingHandler = billingHandler
	app.GoogleAuth = googleAuthSvc

	if app.DocumentsHandler == nil || app.ChatHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
