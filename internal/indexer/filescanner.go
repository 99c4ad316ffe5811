package indexer

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.etcd.io/bbolt"

	"github.com/shopware/vuemodel/internal/config"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
)

var fileStatesBucket = []byte("file_states")

const debounceDelay = 200 * time.Millisecond

// FileScanner keeps a project in sync with the files below its root. Every
// scanned file is loaded into the project; indexers only see files whose
// size or modification time changed since they were last indexed.
type FileScanner struct {
	project  *project.Project
	cfg      *config.Config
	db       *bbolt.DB
	indexers []Indexer

	watcher   *fsnotify.Watcher
	ctx       context.Context
	cancel    context.CancelFunc
	watcherWg sync.WaitGroup
	onUpdate  func()
}

// NewFileScanner opens the file state database at dbPath
func NewFileScanner(p *project.Project, dbPath string) (*FileScanner, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout:      time.Second,
		NoSync:       true,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(fileStatesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FileScanner{
		project: p,
		cfg:     p.Config(),
		db:      db,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// SetOnUpdate registers a callback run after every processed batch
func (fs *FileScanner) SetOnUpdate(onUpdate func()) {
	fs.onUpdate = onUpdate
}

func (fs *FileScanner) AddIndexer(indexer Indexer) {
	fs.indexers = append(fs.indexers, indexer)
}

// skipped reports whether path lies in a skipped directory below the root
func (fs *FileScanner) skipped(path string) bool {
	rel, err := filepath.Rel(fs.cfg.Root, path)
	if err != nil {
		return false
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	return slices.ContainsFunc(parts[:len(parts)-1], fs.cfg.SkipDir)
}

// IndexAll scans every included file below the project root
func (fs *FileScanner) IndexAll(ctx context.Context) error {
	var files []string
	err := filepath.WalkDir(fs.cfg.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != fs.cfg.Root && fs.cfg.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if fs.cfg.Includes(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk project directory: %w", err)
	}

	log.Printf("Found %d files to scan", len(files))
	start := time.Now()

	if err := fs.IndexFiles(ctx, files); err != nil {
		return fmt.Errorf("failed to index files: %w", err)
	}

	log.Printf("Scanning took %s", time.Since(start))
	return nil
}

type fileWork struct {
	path string
	info os.FileInfo
	file *source.File
}

// IndexFiles loads files into the project, then runs the indexers on the
// ones that changed
func (fs *FileScanner) IndexFiles(ctx context.Context, files []string) error {
	files = slices.DeleteFunc(slices.Clone(files), fs.skipped)
	if len(files) == 0 {
		return nil
	}

	changed, err := fs.load(ctx, files)
	if err != nil {
		return err
	}

	if err := fs.index(changed); err != nil {
		return err
	}

	if fs.onUpdate != nil {
		fs.onUpdate()
	}
	return nil
}

// load parses files into the project with a worker pool and returns those
// whose state differs from the stored one
func (fs *FileScanner) load(ctx context.Context, files []string) ([]fileWork, error) {
	workerCount := min(runtime.NumCPU()+2, 16)

	paths := make(chan string, 100)
	var (
		mu      sync.Mutex
		changed []fileWork
		wg      sync.WaitGroup
	)

	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				content, info, err := readFile(path)
				if err != nil {
					continue
				}
				file, err := fs.project.Update(path, content)
				if err != nil {
					log.Printf("Error parsing %s: %v", path, err)
					continue
				}
				if !fs.changed(path, info) {
					continue
				}
				mu.Lock()
				changed = append(changed, fileWork{path: path, info: info, file: file})
				mu.Unlock()
			}
		}()
	}

	var cancelled error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		paths <- path
	}
	close(paths)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	slices.SortFunc(changed, func(a, b fileWork) int {
		return strings.Compare(a.path, b.path)
	})
	return changed, nil
}

// index runs the indexers on changed files in batches
func (fs *FileScanner) index(changed []fileWork) error {
	const batchSize = 50

	for batch := range slices.Chunk(changed, batchSize) {
		paths := make([]string, 0, len(batch))
		for _, work := range batch {
			paths = append(paths, work.path)
		}

		for _, indexer := range fs.indexers {
			if err := indexer.RemovedFiles(paths); err != nil {
				return fmt.Errorf("indexer %s: %w", indexer.ID(), err)
			}
		}

		for _, work := range batch {
			for _, indexer := range fs.indexers {
				if err := indexer.Index(work.file); err != nil {
					log.Printf("Error indexing %s with %s: %v", work.path, indexer.ID(), err)
				}
			}
		}

		if err := fs.storeStates(batch); err != nil {
			return err
		}
	}
	return nil
}

func readFile(path string) ([]byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return content, info, nil
}

// changed compares size and modification time with the stored state
func (fs *FileScanner) changed(path string, info os.FileInfo) bool {
	changed := true
	_ = fs.db.View(func(tx *bbolt.Tx) error {
		state := tx.Bucket(fileStatesBucket).Get([]byte(path))
		if len(state) != 16 {
			return nil
		}
		size := binary.LittleEndian.Uint64(state[:8])
		mtime := binary.LittleEndian.Uint64(state[8:])
		changed = size != uint64(info.Size()) || mtime != uint64(info.ModTime().UnixNano())
		return nil
	})
	return changed
}

func (fs *FileScanner) storeStates(files []fileWork) error {
	return fs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(fileStatesBucket)
		for _, work := range files {
			state := make([]byte, 16)
			binary.LittleEndian.PutUint64(state[:8], uint64(work.info.Size()))
			binary.LittleEndian.PutUint64(state[8:], uint64(work.info.ModTime().UnixNano()))
			if err := bucket.Put([]byte(work.path), state); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveFiles drops files from the project and the indexes
func (fs *FileScanner) RemoveFiles(ctx context.Context, paths []string) error {
	for _, indexer := range fs.indexers {
		if err := indexer.RemovedFiles(paths); err != nil {
			return err
		}
	}
	for _, path := range paths {
		fs.project.Remove(path)
	}

	err := fs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(fileStatesBucket)
		for _, path := range paths {
			if err := bucket.Delete([]byte(path)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if fs.onUpdate != nil {
		fs.onUpdate()
	}
	return nil
}

// ClearStates forgets every stored file state and clears the indexers, so
// the next scan indexes everything again
func (fs *FileScanner) ClearStates() error {
	for _, indexer := range fs.indexers {
		if err := indexer.Clear(); err != nil {
			return err
		}
	}

	return fs.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(fileStatesBucket); err != nil {
			return fmt.Errorf("failed to delete file states bucket: %w", err)
		}
		if _, err := tx.CreateBucket(fileStatesBucket); err != nil {
			return fmt.Errorf("failed to create file states bucket: %w", err)
		}
		return nil
	})
}

// StartWatcher follows changes below the project root until StopWatcher
func (fs *FileScanner) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fs.watcher = watcher

	fs.watcherWg.Add(1)
	go fs.watch()

	return fs.addDirectoryToWatcher(fs.cfg.Root)
}

func (fs *FileScanner) watch() {
	defer fs.watcherWg.Done()
	defer func() { _ = fs.watcher.Close() }()

	pendingAdds := make(map[string]bool)
	pendingRemoves := make(map[string]bool)
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	flush := func() {
		if len(pendingAdds) > 0 {
			files := sortedKeys(pendingAdds)
			clear(pendingAdds)
			log.Printf("Processing %d changed files", len(files))
			if err := fs.IndexFiles(fs.ctx, files); err != nil {
				log.Printf("Error indexing files: %v", err)
			}
		}
		if len(pendingRemoves) > 0 {
			files := sortedKeys(pendingRemoves)
			clear(pendingRemoves)
			log.Printf("Processing %d deleted files", len(files))
			if err := fs.RemoveFiles(fs.ctx, files); err != nil {
				log.Printf("Error removing files: %v", err)
			}
		}
	}

	for {
		select {
		case <-fs.ctx.Done():
			flush()
			return

		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if fs.skipped(event.Name) {
				continue
			}

			info, err := os.Stat(event.Name)
			switch {
			case err == nil && info.IsDir():
				if event.Op&fsnotify.Create != 0 {
					if err := fs.addDirectoryToWatcher(event.Name); err != nil {
						log.Printf("Error adding directory to watcher: %v", err)
					}
				}
				continue
			case !fs.cfg.Includes(event.Name):
				continue
			case err != nil || event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pendingRemoves[event.Name] = true
				delete(pendingAdds, event.Name)
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pendingAdds[event.Name] = true
				delete(pendingRemoves, event.Name)
			default:
				continue
			}
			debounce.Reset(debounceDelay)

		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)

		case <-debounce.C:
			flush()
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StopWatcher stops the file watcher, processing pending changes first
func (fs *FileScanner) StopWatcher() {
	if fs.watcher == nil {
		return
	}
	fs.cancel()
	fs.watcherWg.Wait()
	fs.watcher = nil
}

func (fs *FileScanner) addDirectoryToWatcher(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != fs.cfg.Root && fs.cfg.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fs.watcher.Add(path); err != nil {
			log.Printf("Error watching directory %s: %v", path, err)
		}
		return nil
	})
}

// Close stops the watcher and closes the state database and the indexers
func (fs *FileScanner) Close() error {
	fs.StopWatcher()

	var firstErr error
	for _, indexer := range fs.indexers {
		if err := indexer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := fs.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
