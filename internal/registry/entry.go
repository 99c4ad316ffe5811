package registry

import (
	"slices"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/naming"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
)

// Kind is the kind of asset a registration makes available
type Kind string

const (
	KindComponent Kind = "component"
	KindDirective Kind = "directive"
	KindFilter    Kind = "filter"
	KindMixin     Kind = "mixin"
)

// Kinds lists the kinds templates can refer to
var Kinds = []Kind{KindComponent, KindDirective, KindFilter}

var allKinds = []Kind{KindComponent, KindDirective, KindFilter, KindMixin}

func (k Kind) tag() project.Tag {
	switch k {
	case KindDirective:
		return project.TagDirectiveRegistration
	case KindFilter:
		return project.TagFilterRegistration
	case KindMixin:
		return project.TagMixinRegistration
	}
	return project.TagComponentRegistration
}

// Entry is one registration of a name
type Entry struct {
	// Name is the registered name as written
	Name string
	Kind Kind

	// Value is the registered value; Target is its component, set for
	// components and mixins
	Value  *source.Node
	Target *component.Descriptor

	// Site is the registration call, or the property of a group
	Site *source.Node

	// Global entries are installed application-wide
	Global bool

	// Indirect entries were reached through a reference or a group
	Indirect bool
}

// Key is the normalized name entries are grouped by
func (e Entry) Key() string {
	return naming.Normalize(e.Name)
}

// Path is the file of the registration site
func (e Entry) Path() string {
	return e.Site.Path()
}

// Line is the 1-based line of the registration site
func (e Entry) Line() int {
	return e.Site.Line()
}

// sfcBacked reports whether the target is a single-file component, which is
// authoritative for its name
func (e Entry) sfcBacked() bool {
	if e.Target == nil {
		return false
	}
	file := e.Target.Node.File()
	return file != nil && file.IsSFC()
}

// Index maps normalized names to every candidate registered under them, in
// scan order
type Index struct {
	kind    Kind
	keys    []string
	entries map[string][]Entry
}

func newIndex(kind Kind) *Index {
	return &Index{kind: kind, entries: make(map[string][]Entry)}
}

func (ix *Index) add(e Entry) {
	key := e.Key()
	if key == "" {
		return
	}
	if _, ok := ix.entries[key]; !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.entries[key] = append(ix.entries[key], e)
}

// Kind is the kind of the indexed registrations
func (ix *Index) Kind() Kind {
	return ix.kind
}

// Len is the number of distinct names
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Names returns the normalized names, sorted
func (ix *Index) Names() []string {
	names := slices.Clone(ix.keys)
	slices.Sort(names)
	return names
}

// Candidates returns every entry registered under name, in scan order
func (ix *Index) Candidates(name string) []Entry {
	return slices.Clone(ix.entries[naming.Normalize(name)])
}

// Select picks the entry a name resolves to: a single-file component
// first, then the last global entry, then the last entry in scan order
func (ix *Index) Select(name string) (Entry, bool) {
	return selectEntry(ix.entries[naming.Normalize(name)])
}

// Selected returns the selected entry of every name, sorted by name
func (ix *Index) Selected() []Entry {
	var result []Entry
	for _, name := range ix.Names() {
		if e, ok := selectEntry(ix.entries[name]); ok {
			result = append(result, e)
		}
	}
	return result
}

func selectEntry(candidates []Entry) (Entry, bool) {
	if len(candidates) == 0 {
		return Entry{}, false
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].sfcBacked() {
			return candidates[i], true
		}
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Global {
			return candidates[i], true
		}
	}
	return candidates[len(candidates)-1], true
}
