// Package main loads jokes from a YAML file into the configured store.
//
// Usage:
//
//	go run ./cmd/seed -file cmd/seed/jokes.yaml
//
// Store settings come from the environment and .env, as for the server.
// Re-running with the same file adds nothing new.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/punchlineapp/punchline-server/internal/config"
	"github.com/punchlineapp/punchline-server/internal/di"
	"github.com/punchlineapp/punchline-server/internal/di/providers"
	"github.com/punchlineapp/punchline-server/internal/logger"
	"github.com/punchlineapp/punchline-server/internal/seed"
)

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	path := fs.String("file", "cmd/seed/jokes.yaml", "Seed file to load")
	_ = fs.Parse(os.Args[1:])

	if err := run(*path); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := seed.Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	injector := di.NewContainer()
	defer func() { _ = di.Shutdown(injector) }()

	do.Override[*config.Config](injector, func(do.Injector) (*config.Config, error) {
		return config.Load(nil)
	})

	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		return err
	}
	log := do.MustInvoke[*logger.Logger](injector)

	res, err := seed.Apply(context.Background(), storeHandle.Store, file, time.Now(), log.Logger)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d jokes added, %d already present\n", path, res.Created, res.Unchanged)
	return nil
}
