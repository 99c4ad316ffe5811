package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/source"
	"github.com/shopware/vuemodel/internal/types"
)

// Project holds the parsed files of a workspace. It answers the symbol,
// module and tag lookups the component resolver depends on.
type Project struct {
	cfg  *config.Config
	pool *source.ParserPool

	mu    sync.RWMutex
	files map[string]*entry

	// external files are parsed on demand for module resolution (packages
	// below node_modules) and never take part in tag scans
	external map[string]*source.File

	stamp atomic.Int64
}

type entry struct {
	file *source.File
	tags map[Tag][]*source.Node
}

// New creates an empty project
func New(cfg *config.Config) *Project {
	return &Project{
		cfg:      cfg,
		pool:     source.NewParserPool(),
		files:    make(map[string]*entry),
		external: make(map[string]*source.File),
	}
}

// Config returns the project configuration
func (p *Project) Config() *config.Config {
	return p.cfg
}

// ModificationStamp increases with every change to the project
func (p *Project) ModificationStamp() int64 {
	return p.stamp.Load()
}

// Update parses content as the new version of path. The previous version,
// and every node pointing into it, becomes invalid. The stamp moves only
// after the new version is visible, so a memo filled at the new stamp
// never holds results computed from the old one.
func (p *Project) Update(path string, content []byte) (*source.File, error) {
	file, err := source.ParseFile(p.pool, path, content, p.stamp.Load())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	e := &entry{file: file, tags: ScanTags(file, p.cfg.DefiningCalls...)}

	p.mu.Lock()
	defer p.mu.Unlock()
	old := p.files[path]
	p.files[path] = e
	if ext, ok := p.external[path]; ok {
		ext.Invalidate()
		delete(p.external, path)
	}
	if old != nil {
		old.file.Invalidate()
	}
	file.Stamp = p.stamp.Add(1)
	return file, nil
}

// Remove drops a file from the project
func (p *Project) Remove(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	old, ok := p.files[path]
	if !ok {
		return
	}
	delete(p.files, path)
	old.file.Invalidate()
	p.stamp.Add(1)
}

// File returns the current version of a project file
func (p *Project) File(path string) *source.File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if e, ok := p.files[path]; ok {
		return e.file
	}
	return nil
}

// Paths returns the paths of all project files in scan order
func (p *Project) Paths() []string {
	p.mu.RLock()
	paths := make([]string, 0, len(p.files))
	for path := range p.files {
		paths = append(paths, path)
	}
	p.mu.RUnlock()

	slices.Sort(paths)
	return paths
}

// LoadDir parses every included file below root
func (p *Project) LoadDir(ctx context.Context, root string) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && p.cfg.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if p.cfg.Includes(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return p.LoadFiles(ctx, paths)
}

// LoadFiles reads and parses the given files concurrently
func (p *Project) LoadFiles(ctx context.Context, paths []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			_, err = p.Update(path, content)
			return err
		})
	}

	return g.Wait()
}

// NodeByID looks a node up again in the current version of its file
func (p *Project) NodeByID(id source.NodeID) *source.Node {
	file := p.File(id.Path)
	if file == nil {
		p.mu.RLock()
		file = p.external[id.Path]
		p.mu.RUnlock()
	}
	if file == nil {
		return nil
	}
	return file.NodeByID(id)
}

// InferType returns the best-effort type of an expression or declaration
func (p *Project) InferType(node *source.Node) *types.Type {
	return types.Infer(node, p)
}

// InferTypeNode converts a TypeScript type node into a type
func (p *Project) InferTypeNode(node *source.Node) *types.Type {
	return types.FromTypeNode(node, p)
}

// lookupFile returns a project file, or parses a file outside the project
// when it exists on disk
func (p *Project) lookupFile(path string) *source.File {
	p.mu.RLock()
	if e, ok := p.files[path]; ok {
		p.mu.RUnlock()
		return e.file
	}
	if f, ok := p.external[path]; ok {
		p.mu.RUnlock()
		return f
	}
	p.mu.RUnlock()

	if !slices.Contains(source.ScannedFileTypes, filepath.Ext(path)) {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	file, err := source.ParseFile(p.pool, path, content, p.ModificationStamp())
	if err != nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.external[path]; ok {
		return existing
	}
	p.external[path] = file
	return file
}

// exists reports whether a module candidate path is a loaded file or a
// regular file on disk
func (p *Project) exists(path string) bool {
	p.mu.RLock()
	_, loaded := p.files[path]
	p.mu.RUnlock()
	if loaded {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
