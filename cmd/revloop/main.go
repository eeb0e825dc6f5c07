// revloop filters candidate code review findings, publishes the survivors
// as pull request comments and learns from the reactions they receive.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/revloop-dev/revloop/internal/adapters/driven/ai"
	configfile "github.com/revloop-dev/revloop/internal/adapters/driven/config/file"
	"github.com/revloop-dev/revloop/internal/adapters/driven/github"
	"github.com/revloop-dev/revloop/internal/adapters/driven/storage/sqlite"
	"github.com/revloop-dev/revloop/internal/adapters/driving/cli"
	"github.com/revloop-dev/revloop/internal/core/domain"
	"github.com/revloop-dev/revloop/internal/core/services"
	"github.com/revloop-dev/revloop/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg := configStore.Config()

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	// Optional: without an embedding provider the feedback stage passes
	// everything through and findings persist without vectors.
	embedder, err := ai.CreateAndValidateEmbeddingService(cfg.Embedding.Settings())
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
		embedder = nil
	}
	if embedder != nil {
		defer embedder.Close()
	}

	svcs := cli.Services{
		Feedback: services.NewFeedbackManager(store.FindingStore(), store.ReactionLedger(), nil),
		Config:   configNotifier{store: configStore},
	}

	// Optional: without a token publication and reaction sync are offline
	// and review runs are restricted to dry runs.
	token := cfg.GitHub.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token != "" {
		client, err := github.NewClient(ctx, token, cfg.GitHub.BaseURL)
		if err != nil {
			return fmt.Errorf("create github client: %w", err)
		}

		templates, err := configfile.NewTemplateStore("")
		if err != nil {
			return fmt.Errorf("create template store: %w", err)
		}

		svcs.Files = client
		svcs.Review = services.NewReviewOrchestrator(
			cfg.Filters.ChainConfig(),
			store.FindingStore(),
			github.NewPublisher(client, templates),
			embedder,
		)
		svcs.Feedback = services.NewFeedbackManager(
			store.FindingStore(),
			store.ReactionLedger(),
			github.NewReactionSource(client),
		)
	} else {
		logger.Warn("No GitHub token configured, running offline")
		svcs.Review = services.NewReviewOrchestrator(
			cfg.Filters.ChainConfig(),
			store.FindingStore(),
			offlinePublisher{},
			embedder,
		)
	}

	cli.SetServices(svcs)
	cli.SetVersion(Version)
	return cli.Execute()
}

// offlinePublisher rejects publication when no GitHub token is configured.
// Dry runs never reach it.
type offlinePublisher struct{}

func (offlinePublisher) Publish(context.Context, *domain.Finding) (int64, error) {
	return 0, fmt.Errorf("publishing requires a GitHub token, use --dry-run or configure one")
}

// configNotifier adapts the config store's file watcher to the CLI's
// change notification interface.
type configNotifier struct {
	store *configfile.ConfigStore
}

func (n configNotifier) Watch(ctx context.Context, onChange func()) error {
	return n.store.Watch(ctx, func(configfile.Config) {
		onChange()
	})
}
