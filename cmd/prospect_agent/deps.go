package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pellera/prospect-engine/internal/config"
	"github.com/pellera/prospect-engine/internal/engine"
	"github.com/pellera/prospect-engine/internal/graph"
	"github.com/pellera/prospect-engine/internal/llm"
	"github.com/pellera/prospect-engine/internal/memory"
	"github.com/pellera/prospect-engine/internal/store"
)

// buildEngine wires the shared runtime: LLM client, vector memory, run store
// and executor. The returned cleanup releases the client and any database
// pool.
func buildEngine(ctx context.Context, cfg *config.Config) (*store.Store, *engine.Executor, func(), error) {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var mem memory.Store
	var closeMem func()
	if cfg.DatabaseURL != "" {
		pg, err := memory.ConnectPG(ctx, cfg.DatabaseURL, client)
		if err != nil {
			client.Close() //nolint:errcheck
			return nil, nil, nil, fmt.Errorf("failed to connect vector memory: %w", err)
		}
		mem = pg
		closeMem = pg.Close
	} else {
		log.Println("[prospect_agent] DATABASE_URL not set, using in-process memory")
		mem = memory.NewMemStore(client)
		closeMem = func() {}
	}

	settings := graph.Settings{
		MinIdeas:   cfg.MinIdeas,
		TopPlays:   cfg.TopPlays,
		MemoryTopK: cfg.MemoryTopK,
	}

	st := store.New()
	executor := engine.New(st, mem, client, engine.NewBroadcaster(), settings)

	cleanup := func() {
		closeMem()
		client.Close() //nolint:errcheck
	}
	return st, executor, cleanup, nil
}
