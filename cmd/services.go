package cmd

import (
	"context"
	"fmt"

	"github.com/abhisek/sanlang/internal/api"
	"github.com/abhisek/sanlang/internal/authz"
	"github.com/abhisek/sanlang/internal/decks"
	"github.com/abhisek/sanlang/internal/dictionary"
	"github.com/abhisek/sanlang/internal/learner"
	"github.com/abhisek/sanlang/internal/llm"
	"github.com/abhisek/sanlang/internal/mediamigrate"
	"github.com/abhisek/sanlang/internal/objstore"
	"github.com/abhisek/sanlang/internal/proficiency"
	"github.com/abhisek/sanlang/internal/progress"
	"github.com/abhisek/sanlang/internal/recommend"
	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/stories"
	"github.com/abhisek/sanlang/internal/storygen"
	"github.com/abhisek/sanlang/internal/tokenize"
	"github.com/abhisek/sanlang/internal/vocab"
)

// dictionaryLimit caps lookup results.
const dictionaryLimit = 20

// services holds everything commands share.
type services struct {
	store      *store.Store
	model      *proficiency.Model
	catalog    *stories.Catalog
	dictionary *dictionary.Service
	learners   *learner.Service
	progress   *progress.Service
	recommend  *recommend.Service
	vocab      *vocab.Service
	decks      *decks.Service
	analyzer   *tokenize.Analyzer

	// generator is nil when no LLM provider is configured.
	generator *storygen.Generator
}

func buildServices(ctx context.Context, s *store.Store, withLLM bool) (*services, error) {
	model, err := proficiencyModel()
	if err != nil {
		return nil, err
	}
	analyzer, err := tokenize.Shared()
	if err != nil {
		return nil, err
	}
	catalog := stories.NewCatalog(s, model,
		stories.WithAnalyzer(analyzer),
		stories.WithFetcher(stories.NewFetcher(nil)),
	)

	svc := &services{
		store:      s,
		model:      model,
		catalog:    catalog,
		dictionary: dictionary.NewService(s, dictionaryLimit).WithAnalyzer(analyzer),
		learners:   learner.NewService(s, model),
		progress:   progress.NewService(s, model),
		recommend:  recommend.NewService(s, catalog, recommend.New(model, recommend.WeightsFromConfig(cfg.Recommend))),
		vocab:      vocab.NewService(s),
		decks:      decks.NewService(s, cfg.Drip.DefaultDailyNewCards),
		analyzer:   analyzer,
	}
	svc.vocab.OnFirstReview(decks.MarkStudied)

	if withLLM {
		if p := llmProvider(ctx, s); p != nil {
			gen, err := newGenerator(p, model, analyzer)
			if err != nil {
				return nil, err
			}
			svc.generator = gen
		}
	}
	return svc, nil
}

func newGenerator(p llm.Provider, model *proficiency.Model, analyzer *tokenize.Analyzer) (*storygen.Generator, error) {
	opts := []storygen.Option{storygen.WithAnalyzer(analyzer)}
	if dir := cfg.Generation.WordLists; dir != "" {
		lists, err := storygen.LoadWordLists(dir)
		if err != nil {
			return nil, fmt.Errorf("load word lists: %w", err)
		}
		opts = append(opts, storygen.WithValidator(storygen.NewVocabularyValidator(lists)))
	}
	return storygen.New(p, model, storygen.DefaultConfig(), opts...), nil
}

// objectStore connects to the configured bucket, or returns nil when
// object storage is not configured.
func objectStore() (objstore.Store, error) {
	if !cfg.Storage.Enabled() {
		return nil, nil
	}
	objs, err := objstore.NewS3(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}
	return objs, nil
}

func newMigrator(s *store.Store, objs objstore.Store) (*mediamigrate.Migrator, error) {
	strategies, err := mediamigrate.StrategiesByName(cfg.Migration.Strategies)
	if err != nil {
		return nil, err
	}
	return mediamigrate.NewMigrator(s, objs, cfg.Storage.PublicURL,
		mediamigrate.WithStrategies(strategies),
		mediamigrate.WithRateLimit(cfg.Migration.OpsPerSecond),
	), nil
}

// apiServices assembles the HTTP API dependencies. jobs and migrator may
// be nil.
func (svc *services) apiServices(jobs *storygen.Jobs, migrator *mediamigrate.Migrator) (api.Services, error) {
	enforcer, err := authz.NewEnforcer(cfg.Auth.PolicyFile)
	if err != nil {
		return api.Services{}, err
	}
	out := api.Services{
		Store:      svc.store,
		Catalog:    svc.catalog,
		Dictionary: svc.dictionary,
		Learners:   svc.learners,
		Progress:   svc.progress,
		Recommend:  svc.recommend,
		Vocab:      svc.vocab,
		Decks:      svc.decks,
		Jobs:       jobs,
		Migrator:   migrator,
		Enforcer:   enforcer,
		Analyzer:   svc.analyzer,
	}
	return out, nil
}
