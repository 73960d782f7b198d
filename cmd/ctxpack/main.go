// Command ctxpack registers git repositories and local directories as
// searchable resources, keeps them synced and embedded, and exposes hybrid
// search over them through a CLI and an MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/ctxpack/cgo/hnsw"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/ai"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/git"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/githubresolve"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/localwatch"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/ripgrep"
	"github.com/custodia-labs/ctxpack/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ctxpack/internal/adapters/driving/cli"
	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/core/services"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

// defaultVectorDimension sizes the vector index when no embedder is
// configured at startup. It matches text-embedding-3-small so configuring
// the default provider later doesn't require reindexing.
const defaultVectorDimension = 1536

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ctxpack:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.Load(cli.Flags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.SetVerbose(cfg.Verbose)

	if err := os.MkdirAll(cfg.Storage.ReposDir, 0o755); err != nil {
		return fmt.Errorf("creating repos dir: %w", err)
	}

	store, err := sqlite.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	embedder, err := ai.NewEmbedder(cfg.Embedder)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}

	chatModel, err := ai.NewChatModel(cfg.Chat)
	if err != nil {
		return fmt.Errorf("building chat model: %w", err)
	}

	dimension := defaultVectorDimension
	if embedder != nil {
		dimension = embedder.Dimensions()
	}
	vectorPath := filepath.Join(filepath.Dir(cfg.Storage.DatabasePath), "vectors.hnsw")
	vectorIndex, err := hnsw.New(vectorPath, dimension, hnsw.PrecisionFloat32)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	defer vectorIndex.Close() //nolint:errcheck

	var materializer driven.Materializer = git.New(cfg.Storage.ReposDir, nil)
	materializer = githubresolve.New(materializer, cfg.GitHub.Token)
	textSearcher := ripgrep.New(cfg.Search.RipgrepBinary)

	chunker := services.NewChunker(services.DefaultMaxChunkSize)

	indexer := services.NewIndexer(
		store.ResourceStore(), store.ChunkStore(), materializer, chunker, embedder, vectorIndex,
	)
	if embedder != nil {
		indexer.Embedders = map[string]driven.Embedder{embedder.ModelName(): embedder}
	}

	resourceSvc := services.NewResource(store.ResourceStore())
	scheduler := services.NewScheduler(store.JobStore(), store.ResourceStore(), indexer)
	searchSvc := services.NewSearch(
		store.ResourceStore(), store.ChunkStore(), textSearcher, vectorIndex, embedder, materializer, cfg.Search.CacheSize,
	)
	toolSurface := services.NewToolSurface(store.ResourceStore(), searchSvc, textSearcher, materializer)
	agent := services.NewAgent(searchSvc, toolSurface, chatModel, store.ResearchJobStore())
	agent.UpdateChecker = services.NewUpdateChecker(store.ResourceStore(), materializer)

	watchLocalResources(store.ResourceStore())

	cli.SetServices(cli.Services{
		Resource:  resourceSvc,
		Scheduler: scheduler,
		Search:    searchSvc,
		Agent:     agent,
		Tools:     toolSurface,
	})

	return cli.Execute()
}

// watchLocalResources starts a best-effort fsnotify watch for every
// kind=local resource already registered at startup. Resources added
// later are picked up the next time the process starts; until then they
// are not watched, and the update checker does not check local resources.
func watchLocalResources(resources driven.ResourceStore) {
	ctx := context.Background()
	rs, err := resources.List(ctx, nil)
	if err != nil {
		logger.Warn("listing resources for local watch failed", "err", err)
		return
	}

	watcher := localwatch.New(resources)
	for i := range rs {
		r := rs[i]
		if r.Kind != domain.KindLocal || r.LocalPath == nil {
			continue
		}
		go watcher.Watch(ctx, r.ID, *r.LocalPath)
	}
}
