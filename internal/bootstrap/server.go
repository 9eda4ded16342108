package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/api"
	"github.com/northbrief/curator/internal/composer"
	"github.com/northbrief/curator/internal/config"
	"github.com/northbrief/curator/internal/database"
	"github.com/northbrief/curator/internal/discovery"
	"github.com/northbrief/curator/internal/events"
	"github.com/northbrief/curator/internal/handlers"
	"github.com/northbrief/curator/internal/llm"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/metadata"
	"github.com/northbrief/curator/internal/repository"
	"github.com/northbrief/curator/internal/scrape"
	"github.com/northbrief/curator/internal/structuring"
)

const shutdownTimeout = 15 * time.Second

// Server wraps the HTTP server with lifecycle management.
type Server struct {
	server *http.Server
	logger logger.Logger
}

// SetupHTTPServer wires repositories, clients, pipelines and handlers
// into a ready-to-run HTTP server.
func SetupHTTPServer(
	cfg *config.Config,
	db *database.DB,
	publisher *events.Publisher,
	log logger.Logger,
) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sourceRepo := repository.NewSourceRepository(db.DB(), log)
	articleRepo := repository.NewArticleRepository(db.DB(), log)
	jobRepo := repository.NewScrapeJobRepository(db.DB(), log)
	brandRepo := repository.NewBrandContextRepository(db.DB(), log)
	newsletterRepo := repository.NewNewsletterRepository(db.DB(), log)

	scrapeClient := scrape.NewClient(scrape.Config{
		BaseURL: cfg.Scrape.BaseURL,
		APIKey:  cfg.Scrape.APIKey,
	})
	llmClient := llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Referer: cfg.LLM.Referer,
		Title:   cfg.LLM.Title,
	})

	discoveryPipeline := discovery.NewPipeline(discovery.Deps{
		Scraper:   scrapeClient,
		Completer: llmClient,
		Articles:  articleRepo,
		Jobs:      jobRepo,
		Events:    publisher,
	}, discovery.Config{
		PollInterval:    cfg.Scrape.PollInterval,
		MaxPollAttempts: cfg.Scrape.MaxPollAttempts,
	}, log)

	structuringPipeline := structuring.NewPipeline(scrapeClient, llmClient, articleRepo, publisher, log)
	newsletterComposer := composer.New(llmClient, articleRepo, newsletterRepo, log)

	router := api.NewRouter(api.Handlers{
		Sources:     handlers.NewSourceHandler(sourceRepo, metadata.NewExtractor(log), log),
		Articles:    handlers.NewArticleHandler(articleRepo, structuringPipeline, log),
		ScrapeJobs:  handlers.NewScrapeJobHandler(jobRepo, scrapeClient, log),
		Brand:       handlers.NewBrandContextHandler(brandRepo, log),
		Newsletters: handlers.NewNewsletterHandler(newsletterRepo, newsletterComposer, publisher, log),
		Discovery:   handlers.NewDiscoveryHandler(discoveryPipeline, sourceRepo, brandRepo, log),
	}, cfg.Server.CORSOrigins, log)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: log,
	}
}

// Run starts the server and blocks until it exits or a shutdown signal
// arrives, then shuts down gracefully.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.logger.Info("Shutdown signal received",
			logger.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
