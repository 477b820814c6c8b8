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


package ledgermatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/ledgermatch/ai"
	"github.com/poiesic/ledgermatch/ai/cache"
	"github.com/poiesic/ledgermatch/ai/local"
	"github.com/poiesic/ledgermatch/ai/ollama"
	"github.com/poiesic/ledgermatch/ai/openai"
	"github.com/poiesic/ledgermatch/config"
	"github.com/poiesic/ledgermatch/core"
	"github.com/poiesic/ledgermatch/fuzzy"
	"github.com/poiesic/ledgermatch/ingestion"
	"github.com/poiesic/ledgermatch/match"
	"github.com/poiesic/ledgermatch/metrics"
	"github.com/poiesic/ledgermatch/reembed"
	"github.com/poiesic/ledgermatch/search"
	"github.com/poiesic/ledgermatch/storage"
	"github.com/poiesic/ledgermatch/storage/badger"
)

// Service ties storage, the embedding provider and both ranking engines together.
type Service struct {
	config   *config.Config
	store    *badger.Store
	provider ai.Provider
	embedder ai.Embedder
	matcher  *match.Matcher
	ranker   *search.Ranker
	base     *slog.Logger
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.Provider
	logger   *slog.Logger
}

// WithProvider supplies an embedding provider instead of building one from the config.
// The service takes ownership and closes it.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService validates cfg and builds every component.
func NewService(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	ttl := time.Duration(0)
	if cfg.EnableCaching {
		ttl = cfg.CacheTTL
	}
	store, err := badger.Open(cfg.DBPath, badger.WithVectorTTL(ttl), badger.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	provider := options.provider
	if provider == nil {
		provider, err = NewProvider(cfg.Embedding)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create embedding provider: %w", err)
		}
	}

	embedder := provider.Embedder()
	if cfg.EnableCaching {
		embedder = cache.New(embedder, store.Vectors, cfg.Embedding.Model,
			cache.WithLogger(logger),
			cache.WithOnLookup(metrics.RecordCacheLookup),
		)
	}

	ratio, err := fuzzy.ParseMetric(cfg.MatchMetric)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}
	matcher, err := match.NewMatcher(
		match.WithRatio(ratio),
		match.WithPrecision(cfg.ResultPrecision),
		match.WithLogger(logger),
	)
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	ranker, err := search.NewRanker(embedder,
		search.WithThreshold(cfg.SimilarityThreshold),
		search.WithProviderTimeout(cfg.ProviderTimeout),
		search.WithBatchSize(cfg.Embedding.BatchSize),
		search.WithPrecision(cfg.ResultPrecision),
		search.WithMonitor(metrics.SearchMonitor{}),
		search.WithLogger(logger),
	)
	if err != nil {
		matcher.Release()
		provider.Close()
		store.Close()
		return nil, err
	}

	return &Service{
		config:   cfg,
		store:    store,
		provider: provider,
		embedder: embedder,
		matcher:  matcher,
		ranker:   ranker,
		base:     logger,
		logger:   logger.With("component", "service"),
	}, nil
}

// NewProvider builds the provider selected by cfg.Backend.
func NewProvider(cfg *ai.Config) (ai.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case ai.BackendOpenAI:
		return openai.NewProvider(cfg)
	case ai.BackendOllama:
		return ollama.NewProvider(cfg)
	default:
		provider, err := local.NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
}

// Close releases components in reverse order of construction.
func (s *Service) Close() error {
	s.ranker.Release()
	s.matcher.Release()

	var errs []error
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing embedding provider", "err", err)
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Config returns the validated configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Users returns the user repository.
func (s *Service) Users() storage.UserRepository {
	return s.store.Users
}

// Transactions returns the transaction repository.
func (s *Service) Transactions() storage.TransactionRepository {
	return s.store.Transactions
}

// Embedder returns the embedder used for search, cached when caching is enabled.
func (s *Service) Embedder() ai.Embedder {
	return s.embedder
}

// Matcher returns the tiered name matcher.
func (s *Service) Matcher() *match.Matcher {
	return s.matcher
}

// MatchUsers ranks every user against the description of transactionID.
// An unknown transaction yields an empty result.
func (s *Service) MatchUsers(ctx context.Context, transactionID string) (core.RankedResult, error) {
	txn, err := s.store.Transactions.GetTransaction(ctx, transactionID)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Debug("transaction not found", "transaction_id", transactionID)
		return core.EmptyResult(), nil
	}
	if err != nil {
		return core.RankedResult{}, err
	}

	users, err := s.store.Users.ListUsers(ctx)
	if err != nil {
		return core.RankedResult{}, err
	}

	start := time.Now()
	result, err := s.matcher.Match(ctx, txn.Description, users)
	if err != nil {
		return core.RankedResult{}, err
	}
	metrics.RecordRanking(metrics.EngineMatch, len(users), result.Count, time.Since(start).Seconds())
	return result, nil
}

// SearchSimilarDescriptions ranks every transaction by semantic similarity to query.
// It also returns the number of whitespace-separated tokens in query.
func (s *Service) SearchSimilarDescriptions(ctx context.Context, query string) (core.RankedResult, int, error) {
	items, err := s.store.Transactions.ListTransactions(ctx)
	if err != nil {
		return core.RankedResult{}, 0, err
	}

	start := time.Now()
	result, tokens, err := s.ranker.RankBySimilarity(ctx, query, items)
	if err != nil {
		return core.RankedResult{}, 0, err
	}
	metrics.RecordRanking(metrics.EngineSearch, len(items), result.Count, time.Since(start).Seconds())
	return result, tokens, nil
}

// NewImporter creates an importer writing into this service's store.
// The caller must Release it.
func (s *Service) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(s.base)}, opts...)
	return ingestion.NewImporter(s.store.Users, s.store.Transactions, opts...)
}

// LoadData imports the users and transactions CSVs named in the config.
// Missing files load nothing.
func (s *Service) LoadData(ctx context.Context) (users, transactions ingestion.Stats, err error) {
	imp, err := s.NewImporter()
	if err != nil {
		return users, transactions, err
	}
	defer imp.Release()

	if s.config.UsersPath != "" {
		if users, err = imp.ImportFile(ctx, s.config.UsersPath, ingestion.KindUsers); err != nil {
			return users, transactions, err
		}
	}
	if s.config.TransactionsPath != "" {
		if transactions, err = imp.ImportFile(ctx, s.config.TransactionsPath, ingestion.KindTransactions); err != nil {
			return users, transactions, err
		}
	}
	return users, transactions, nil
}

// NewWarmer creates a cache warmer over the stored transactions.
func (s *Service) NewWarmer(cfg *reembed.Config, progress io.Writer) (*reembed.Warmer, error) {
	if !s.config.EnableCaching {
		s.logger.Warn("warming with caching disabled; embeddings will not be kept")
	}
	return reembed.NewWarmer(s.store.Transactions, s.store.Checkpoints, s.embedder, cfg, progress)
}
