package indexer

import "github.com/shopware/vuemodel/internal/source"

// Indexer derives persistent data from parsed files. Index runs after every
// file of a scan is loaded into the project, so cross-file lookups see the
// whole workspace.
type Indexer interface {
	ID() string
	Index(file *source.File) error
	RemovedFiles(paths []string) error
	Close() error
	Clear() error
}
