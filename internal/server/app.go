// Package server wires the LexBridge backend together: database and
// migrations, object storage, the questionnaire engine, services, and the
// HTTP and gRPC servers with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/config"
	"github.com/dmitrijs2005/lexbridge/internal/server/httpapi"
	"github.com/dmitrijs2005/lexbridge/internal/server/questionnaire"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
	"github.com/dmitrijs2005/lexbridge/internal/server/storage"

	gs "github.com/dmitrijs2005/lexbridge/internal/server/grpc"
)

// outboundTimeout bounds calls to the OCR service and the summarizer.
const outboundTimeout = 60 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services httpapi.Services
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, false)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newObjectStore(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	engine, filler, ocr, err := newQuestionnaireStack(c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	svc := httpapi.Services{
		Users:          services.NewUserService(db, rm, c, logger),
		Cases:          services.NewCaseService(db, rm, logger),
		Professionals:  services.NewProfessionalService(db, rm, logger),
		Verifications:  services.NewVerificationService(db, rm, store, logger),
		Admin:          services.NewAdminService(db, rm, logger),
		Questionnaires: services.NewQuestionnaireService(db, rm, engine, filler, store, ocr, logger),
		Documents:      services.NewDocumentService(db, rm, store, logger),
	}

	return &App{config: c, logger: logger, db: db, services: svc}, nil
}

// newObjectStore uses S3 when a bucket is configured and falls back to an
// in-process store otherwise.
func newObjectStore(ctx context.Context, c *config.Config, l logging.Logger) (storage.ObjectStore, error) {
	if c.S3Bucket == "" {
		l.Warn(ctx, "no S3 bucket configured, using in-memory object store")
		return storage.NewMemoryStore(), nil
	}
	s, err := storage.NewS3Store(ctx, storage.S3Options{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}
	return s, nil
}

func newQuestionnaireStack(c *config.Config, l logging.Logger) (*questionnaire.Engine, *questionnaire.Filler, questionnaire.Recognizer, error) {
	bank, err := questionnaire.DefaultBank()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("question bank: %w", err)
	}
	filler, err := questionnaire.DefaultFiller()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("document templates: %w", err)
	}

	client := &http.Client{Timeout: outboundTimeout}

	var summarizer questionnaire.Summarizer
	if c.OllamaURL != "" {
		summarizer = questionnaire.NewOllamaSummarizer(c.OllamaURL, c.OllamaModel, client)
	}

	var ocr questionnaire.Recognizer
	if c.OCRServerURL != "" {
		ocr = questionnaire.NewOCRClient(c.OCRServerURL, client)
	}

	return questionnaire.NewEngine(bank, summarizer, l), filler, ocr, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.services, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, 0)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
