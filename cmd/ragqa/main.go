package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	chatopenai "ragqa/internal/chat/openai"
	"ragqa/internal/config"
	"ragqa/internal/domain"
	embopenai "ragqa/internal/embedding/openai"
	"ragqa/internal/httpclient"
	"ragqa/internal/logging"
	"ragqa/internal/server"
	"ragqa/internal/service"
	"ragqa/internal/tui"
	"ragqa/internal/vectorstore/pinecone"
	"ragqa/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, logPath string
	var serve bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragqa/config.yaml if not provided)")
	flag.BoolVar(&serve, "serve", false, "Serve the HTTP API instead of the interactive UI")
	flag.StringVar(&logPath, "log", "", "Write logs to this file while the interactive UI runs")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	secrets, err := cfg.ResolveSecrets(os.Getenv)
	if err != nil {
		log.Fatalf("failed to resolve secrets: %v", err)
	}

	query := strings.Join(flag.Args(), " ")
	interactive := !serve && query == ""

	logger, err := newLogger(cfg.Debug, interactive, logPath)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	svc, err := buildService(cfg, secrets, logger)
	if err != nil {
		logger.Fatal("failed to assemble pipeline", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case serve:
		if err := runServer(ctx, svc, &cfg.Server, logger); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case query != "":
		ans, err := svc.Answer(ctx, query)
		if printAnswer(os.Stdout, ans, err) {
			os.Exit(1)
		}
	default:
		if _, err := tea.NewProgram(tui.New(ctx, svc), tea.WithAltScreen()).Run(); err != nil {
			log.Fatal(err)
		}
	}
}

func newLogger(debug, interactive bool, logPath string) (*zap.Logger, error) {
	if !interactive {
		return logging.NewLogger(debug)
	}
	if logPath == "" {
		return zap.NewNop(), nil
	}
	return logging.NewFileLogger(logPath, debug)
}

// buildService assembles the pipeline components selected by cfg.
func buildService(cfg *config.AppConfig, secrets config.Secrets, logger *zap.Logger) (*service.RAGServiceImpl, error) {
	newHTTP := func(timeoutSecs int) *httpclient.Client {
		return httpclient.New(httpclient.Config{
			Timeout:    time.Duration(timeoutSecs) * time.Second,
			MaxRetries: cfg.HTTP.MaxRetries,
			Logger:     logger,
		})
	}

	emb, err := embopenai.NewClient(embopenai.Config{
		BaseURL: cfg.Embedder.BaseURL,
		APIKey:  secrets.EmbedderAPIKey,
		Model:   cfg.Embedder.Model,
		HTTP:    newHTTP(cfg.Embedder.TimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	var st domain.VectorSearcher
	switch cfg.VectorStore.Type {
	case "pinecone":
		if cfg.VectorStore.Pinecone == nil {
			return nil, errors.New("pinecone config missing")
		}
		st, err = pinecone.NewStorage(pinecone.Config{
			IndexURL: cfg.VectorStore.Pinecone.IndexURL,
			APIKey:   secrets.VectorStoreAPIKey,
			HTTP:     newHTTP(cfg.VectorStore.Pinecone.TimeoutSecs),
		})
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			return nil, errors.New("qdrant config missing")
		}
		st, err = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     secrets.VectorStoreAPIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			HTTP:       newHTTP(cfg.VectorStore.Qdrant.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}

	chat, err := chatopenai.NewClient(chatopenai.Config{
		BaseURL:      cfg.Chat.BaseURL,
		APIKey:       secrets.ChatAPIKey,
		Model:        cfg.Chat.Model,
		SystemPrompt: cfg.Chat.SystemPrompt,
		HTTP:         newHTTP(cfg.Chat.TimeoutSecs),
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	logger.Debug("pipeline assembled",
		zap.String("embedder", emb.Name()),
		zap.String("vector_store", st.Name()),
		zap.String("chat", chat.Name()))
	return service.NewRAGService(emb, st, chat, logger), nil
}

func runServer(ctx context.Context, svc domain.RAGService, cfg *config.ServerConfig, logger *zap.Logger) error {
	srv := server.NewServer(svc, cfg, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

// printAnswer writes a one-shot result and reports whether it was a failure.
func printAnswer(w io.Writer, ans *domain.Answer, err error) bool {
	if errors.Is(err, domain.ErrEmptyQuery) {
		return false
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	if ans == nil {
		return err != nil
	}
	if ans.Text != "" {
		fmt.Fprintf(w, "Answer\n\n%s\n\n", ans.Text)
	}
	fmt.Fprintln(w, "Related Articles")
	if ans.NoResults() {
		fmt.Fprintln(w, "No results found")
		return err != nil
	}
	for i, l := range ans.Matches {
		fmt.Fprintf(w, "%d. [%.3f] %s <%s>\n", i+1, l.Score, l.Title, l.URL)
	}
	return err != nil
}
