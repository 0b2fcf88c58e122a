package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Paradorn657/RAG-AI/app/agent"
	"github.com/Paradorn657/RAG-AI/app/api"
	"github.com/Paradorn657/RAG-AI/model"
	"github.com/Paradorn657/RAG-AI/store"
	"github.com/Paradorn657/RAG-AI/types"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	cfg := types.ConfigFromEnv()

	contextStore, err := newKnowledgeStore(ctx, cfg)
	if err != nil {
		log.Fatal("error to initialize knowledge store: ", err)
		return
	}

	var (
		app          = fiber.New(config)
		checkHandler = api.NewCheckHandler()
		askHandler   = api.NewAskHandler(contextStore, model.NewEmbedderFromEnv(), agent.NewFromEnv(), cfg)
		fileHandler  = api.NewFileHandler(types.LoaderConfigFromEnv().SourceDir)
		check        = app.Group("/check")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	app.Post("/ask", askHandler.HandleAsk)
	app.Post("/upload", fileHandler.HandleUpload)

	err = app.Listen(s.listenAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

// newKnowledgeStore picks the backend. The JSON file store is the default;
// KB_BACKEND=postgres switches to pgvector for larger corpora. The file
// store is preloaded once and treated as read-only for the lifetime of the
// process; restart (or reload) after an ingestion run.
func newKnowledgeStore(ctx context.Context, cfg types.Config) (store.KnowledgeStore, error) {
	switch cfg.Backend {
	case "postgres":
		port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
		connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
		pool, err := store.NewPostgresStore(ctx, connStr)
		if err != nil {
			return nil, err
		}
		if err := pool.Init(ctx); err != nil {
			return nil, err
		}
		return pool, nil
	default:
		fileStore := store.NewFileStore(cfg.Partitions...)
		if err := fileStore.Preload(ctx); err != nil {
			return nil, err
		}
		return fileStore, nil
	}
}
