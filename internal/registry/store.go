package registry

import (
	"path/filepath"

	"github.com/shopware/vuemodel/internal/indexer"
	"github.com/shopware/vuemodel/internal/naming"
	"github.com/shopware/vuemodel/internal/source"
)

// Summary is the persisted form of a registration
type Summary struct {
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Global     bool   `json:"global"`
	Indirect   bool   `json:"indirect"`
	Variant    string `json:"variant,omitempty"`
	TargetPath string `json:"targetPath,omitempty"`
	TargetLine int    `json:"targetLine,omitempty"`
}

// Summarize converts an entry for storage and reports
func Summarize(e Entry) Summary {
	s := Summary{
		Name:     e.Name,
		Kind:     e.Kind,
		Path:     e.Path(),
		Line:     e.Line(),
		Global:   e.Global,
		Indirect: e.Indirect,
	}
	if e.Target != nil {
		s.Variant = e.Target.Variant()
		s.TargetPath = e.Target.Node.Path()
		s.TargetLine = e.Target.Node.Line()
	} else if e.Value != nil {
		s.TargetPath = e.Value.Path()
		s.TargetLine = e.Value.Line()
	}
	return s
}

// Store persists the registrations made in each file, so a later run can
// list them without resolving the project again
type Store struct {
	registry *Registry
	table    *indexer.Table[Summary]
}

var _ indexer.Indexer = (*Store)(nil)

// OpenStore opens the registration store in cacheDir
func OpenStore(r *Registry, cacheDir string) (*Store, error) {
	table, err := indexer.OpenTable[Summary](filepath.Join(cacheDir, "registrations.db"))
	if err != nil {
		return nil, err
	}
	return &Store{registry: r, table: table}, nil
}

func (s *Store) ID() string {
	return "registry.registrations"
}

func storeKey(kind Kind, name string) string {
	return string(kind) + ":" + naming.Normalize(name)
}

// Index stores every candidate registered in file, selected or not
func (s *Store) Index(file *source.File) error {
	scope := source.FilesScope(file.Path)

	keyed := make(map[string][]Summary)
	for _, kind := range allKinds {
		ix := s.registry.Index(kind, scope)
		for _, name := range ix.Names() {
			for _, e := range ix.Candidates(name) {
				key := storeKey(kind, name)
				keyed[key] = append(keyed[key], Summarize(e))
			}
		}
	}
	return s.table.Replace(map[string]map[string][]Summary{file.Path: keyed})
}

func (s *Store) RemovedFiles(paths []string) error {
	return s.table.DeleteFiles(paths)
}

// Lookup returns the stored registrations of a name, oldest first
func (s *Store) Lookup(kind Kind, name string) ([]Summary, error) {
	return s.table.Values(storeKey(kind, name))
}

// All returns every stored registration
func (s *Store) All() ([]Summary, error) {
	return s.table.All()
}

func (s *Store) Close() error {
	return s.table.Close()
}

func (s *Store) Clear() error {
	return s.table.Clear()
}
