// Package workspace wires a project, its component model and registry, and
// the optional persistent index for one project root.
package workspace

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/indexer"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/registry"
)

type Workspace struct {
	Config   *config.Config
	Project  *project.Project
	Model    *component.Model
	Registry *registry.Registry

	// Scanner and Store are set by OpenIndex
	Scanner *indexer.FileScanner
	Store   *registry.Store
}

// Open reads the configuration of root and creates an empty project
func Open(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, err
	}

	p := project.New(cfg)
	model := component.NewModel(p, component.Options{
		DefiningCalls:   cfg.DefiningCalls,
		DirectivePrefix: cfg.DirectivePrefix,
		DisableCache:    !cfg.CacheEnabled(),
	})
	return &Workspace{
		Config:   cfg,
		Project:  p,
		Model:    model,
		Registry: registry.New(model, !cfg.CacheEnabled()),
	}, nil
}

// Load parses every included file below the project root
func (w *Workspace) Load(ctx context.Context) error {
	return w.Project.LoadDir(ctx, w.Config.Root)
}

// OpenIndex opens the persistent stores in the cache directory. A cache
// written by another index version is wiped first.
func (w *Workspace) OpenIndex() error {
	cacheDir, err := w.Config.CacheDir()
	if err != nil {
		return err
	}

	reset, err := indexer.CheckAndMigrateCache(cacheDir)
	if err != nil {
		return err
	}
	if reset {
		log.Printf("Index cache at %s was reset", cacheDir)
	}

	scanner, err := indexer.NewFileScanner(w.Project, filepath.Join(cacheDir, "files.db"))
	if err != nil {
		return err
	}
	store, err := registry.OpenStore(w.Registry, cacheDir)
	if err != nil {
		_ = scanner.Close()
		return err
	}
	scanner.AddIndexer(store)

	// drop results computed for older project states
	scanner.SetOnUpdate(func() {
		w.Model.Prune()
		w.Registry.Prune()
	})

	w.Scanner = scanner
	w.Store = store
	return nil
}

// Close stops the watcher and closes the persistent stores
func (w *Workspace) Close() error {
	if w.Scanner == nil {
		return nil
	}
	err := w.Scanner.Close()
	w.Scanner, w.Store = nil, nil
	return err
}
