// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/ledgermatch"
	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/api"
	"github.com/poiesic/ledgermatch/config"
	"github.com/poiesic/ledgermatch/reembed"
)

func main() {
	if err := loadEnv(".env"); err != nil {
		log.Fatal(err)
	}
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := config.DefaultConfig()

	return &cli.App{
		Name:  "ledgermatch",
		Usage: "Match transactions to users and search descriptions by meaning",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   defaults.LogLevel,
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (empty runs in memory)",
				EnvVars: []string{"DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "users",
				Usage:   "Users CSV file",
				Value:   defaults.UsersPath,
				EnvVars: []string{"DATA_USERS_PATH"},
			},
			&cli.StringFlag{
				Name:    "transactions",
				Usage:   "Transactions CSV file",
				Value:   defaults.TransactionsPath,
				EnvVars: []string{"DATA_TRANSACTIONS_PATH"},
			},
			&cli.StringFlag{
				Name:    "embedding-backend",
				Usage:   "Embedding backend (local, openai, ollama)",
				Value:   string(defaults.Embedding.Backend),
				EnvVars: []string{"EMBEDDING_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   defaults.Embedding.Host,
				EnvVars: []string{"EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   defaults.Embedding.Model,
				EnvVars: []string{"MODEL_NAME"},
			},
			&cli.StringFlag{
				Name:    "embedding-token",
				Usage:   "API token for OpenAI-compatible services",
				Value:   defaults.Embedding.Token,
				EnvVars: []string{"EMBEDDING_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "models-dir",
				Usage:   "Directory the local backend caches models in",
				Value:   defaults.Embedding.ModelsDir,
				EnvVars: []string{"MODELS_DIR"},
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Usage:   "Minimum similarity a search result must exceed",
				Value:   defaults.SimilarityThreshold,
				EnvVars: []string{"SIMILARITY_THRESHOLD"},
			},
			&cli.BoolFlag{
				Name:    "enable-caching",
				Usage:   "Keep embeddings in the vector cache",
				Value:   defaults.EnableCaching,
				EnvVars: []string{"ENABLE_CACHING"},
			},
			&cli.IntFlag{
				Name:    "cache-ttl",
				Usage:   "Vector cache entry lifetime in seconds (0 keeps them forever)",
				Value:   int(defaults.CacheTTL / time.Second),
				EnvVars: []string{"CACHE_TTL"},
			},
			&cli.StringFlag{
				Name:    "match-metric",
				Usage:   "Edit-distance ratio for fuzzy name matching (indel, levenshtein)",
				Value:   defaults.MatchMetric,
				EnvVars: []string{"MATCH_METRIC"},
			},
			&cli.DurationFlag{
				Name:    "provider-timeout",
				Usage:   "Timeout for each embedding provider call",
				Value:   defaults.ProviderTimeout,
				EnvVars: []string{"PROVIDER_TIMEOUT"},
			},
			&cli.IntFlag{
				Name:    "precision",
				Usage:   "Decimals scores are rounded to (-1 disables rounding)",
				Value:   defaults.ResultPrecision,
				EnvVars: []string{"RESULT_PRECISION"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Load the CSV data and serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Usage:   "Interface to bind",
						Value:   defaults.APIHost,
						EnvVars: []string{"API_HOST"},
					},
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to listen on",
						Value:   defaults.APIPort,
						EnvVars: []string{"API_PORT"},
					},
					&cli.BoolFlag{
						Name:  "warm",
						Usage: "Pre-embed every transaction before serving",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Load the users and transactions CSVs into the database",
				Action: importCommand,
			},
			{
				Name:      "match",
				Usage:     "Rank users against a transaction's description",
				ArgsUsage: "<transaction-id>",
				Action:    matchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print the tier that produced each score",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Rank transactions by semantic similarity to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
			},
			{
				Name:   "warm",
				Usage:  "Pre-embed every transaction into the vector cache",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of transactions to embed in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N transactions",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Discard the checkpoint and start from the first transaction",
					},
				},
			},
		},
	}
}

// loadEnv exports the variables in path without overriding ones already set.
// A missing file is not an error. It runs before flag parsing so EnvVars see the values.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	switch levelStr {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLevel(levelStr),
	}))
	slog.SetDefault(logger)
	return nil
}

// buildConfig assembles a Config from the global flags.
func buildConfig(c *cli.Context) *config.Config {
	backend := ai.Backend(c.String("embedding-backend"))

	embedding := ai.NewConfig(
		ai.WithBackend(backend),
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithToken(c.String("embedding-token")),
		ai.WithModelsDir(c.String("models-dir")),
	)

	return config.NewConfig(
		config.WithLogLevel(c.String("log-level")),
		config.WithDBPath(c.String("db")),
		config.WithDataPaths(c.String("users"), c.String("transactions")),
		config.WithSimilarityThreshold(c.Float64("threshold")),
		config.WithCaching(c.Bool("enable-caching"), time.Duration(c.Int("cache-ttl"))*time.Second),
		config.WithMatchMetric(c.String("match-metric")),
		config.WithProviderTimeout(c.Duration("provider-timeout")),
		config.WithResultPrecision(c.Int("precision")),
		config.WithEmbedding(embedding),
	)
}

// openService builds the service and loads the CSVs when the store is empty.
func openService(ctx context.Context, cfg *config.Config) (*ledgermatch.Service, error) {
	svc, err := ledgermatch.NewService(cfg)
	if err != nil {
		return nil, err
	}

	users, err := svc.Users().CountUsers(ctx)
	if err != nil {
		svc.Close()
		return nil, err
	}
	txns, err := svc.Transactions().CountTransactions(ctx)
	if err != nil {
		svc.Close()
		return nil, err
	}
	if users == 0 && txns == 0 {
		if _, _, err := svc.LoadData(ctx); err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to load data: %w", err)
		}
	}
	return svc, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := buildConfig(c)
	cfg.APIHost = c.String("host")
	cfg.APIPort = c.Int("port")

	svc, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if c.Bool("warm") {
		warmer, err := svc.NewWarmer(reembed.DefaultConfig(), os.Stderr)
		if err != nil {
			return err
		}
		if _, err := warmer.Run(ctx); err != nil {
			return fmt.Errorf("warm-up failed: %w", err)
		}
	}

	server, err := api.NewServer(svc)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func importCommand(c *cli.Context) error {
	cfg := buildConfig(c)
	if cfg.DBPath == "" {
		return fmt.Errorf("--db is required for import")
	}

	svc, err := ledgermatch.NewService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	users, txns, err := svc.LoadData(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(w, "Users: %d imported, %d skipped, %d duplicates\n", users.Imported, users.Skipped, users.Duplicates)
	fmt.Fprintf(w, "Transactions: %d imported, %d skipped, %d duplicates\n", txns.Imported, txns.Skipped, txns.Duplicates)
	return nil
}

type explanation struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Tier  string  `json:"tier"`
	Score float64 `json:"score"`
}

func matchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one transaction id")
	}
	id := c.Args().First()

	svc, err := openService(c.Context, buildConfig(c))
	if err != nil {
		return err
	}
	defer svc.Close()

	if c.Bool("explain") {
		return explainMatch(c.Context, c.App.Writer, svc, id)
	}

	result, err := svc.MatchUsers(c.Context, id)
	if err != nil {
		return fmt.Errorf("matching users: %w", err)
	}
	return writeJSON(c.App.Writer, api.NewMatchUsersResponse(result))
}

func explainMatch(ctx context.Context, w io.Writer, svc *ledgermatch.Service, id string) error {
	txn, err := svc.Transactions().GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", id, err)
	}
	users, err := svc.Users().ListUsers(ctx)
	if err != nil {
		return err
	}

	out := make([]explanation, 0, len(users))
	for _, u := range users {
		tier, score, ok := svc.Matcher().Evaluate(txn.Description, u.Name)
		if !ok {
			continue
		}
		out = append(out, explanation{ID: u.ID, Name: u.Name, Tier: tier.String(), Score: score})
	}
	return writeJSON(w, out)
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("a query is required")
	}

	svc, err := openService(c.Context, buildConfig(c))
	if err != nil {
		return err
	}
	defer svc.Close()

	result, tokens, err := svc.SearchSimilarDescriptions(c.Context, query)
	if err != nil {
		return fmt.Errorf("searching descriptions: %w", err)
	}
	return writeJSON(c.App.Writer, api.NewSearchResponse(result, tokens))
}

func warmCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	warmConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if warmConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if warmConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if warmConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	svc, err := openService(ctx, buildConfig(c))
	if err != nil {
		return err
	}
	defer svc.Close()

	warmer, err := svc.NewWarmer(warmConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	if c.Bool("reset") {
		if err := warmer.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset checkpoint: %w", err)
		}
	}

	if _, err := warmer.Run(ctx); err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
