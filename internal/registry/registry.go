package registry

import (
	"github.com/shopware/vuemodel/internal/cache"
	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// Registry answers which components, directives and filters a name refers
// to. Indexes are built per scope on first use and cached until the project
// changes.
type Registry struct {
	model   *component.Model
	indexes *cache.Memo[string, *Index]
}

var _ component.Registry = (*Registry)(nil)

// New creates a registry over the declarations model resolves, and installs
// it as the model's lookup for parents referenced by name
func New(model *component.Model, disableCache bool) *Registry {
	r := &Registry{model: model}
	if disableCache {
		r.indexes = cache.Disabled[string, *Index]("registrations")
	} else {
		r.indexes = cache.NewMemo[string, *Index]("registrations", model.Host().ModificationStamp)
	}
	model.SetRegistry(r)
	return r
}

// Index returns the registrations of kind made within scope
func (r *Registry) Index(kind Kind, scope source.Scope) *Index {
	key := string(kind) + "|" + scope.Key()
	return r.indexes.Get(key, nil, func() *Index {
		b := newBuilder(r.model, kind)
		for _, call := range r.model.Host().FindAllTagged(scope, kind.tag()) {
			b.registration(call)
		}
		return b.index
	})
}

// Components returns the component registrations within scope
func (r *Registry) Components(scope source.Scope) *Index {
	return r.Index(KindComponent, scope)
}

// Directives returns the directive registrations within scope
func (r *Registry) Directives(scope source.Scope) *Index {
	return r.Index(KindDirective, scope)
}

// Filters returns the filter registrations within scope
func (r *Registry) Filters(scope source.Scope) *Index {
	return r.Index(KindFilter, scope)
}

// Mixins returns the named mixin registrations within scope
func (r *Registry) Mixins(scope source.Scope) *Index {
	return r.Index(KindMixin, scope)
}

// Local returns what a component registers for its own template, including
// registrations inherited from its parents
func (r *Registry) Local(desc *component.Descriptor, kind Kind) *Index {
	ix := newIndex(kind)
	if desc == nil {
		return ix
	}

	section := localSection(kind)
	if section == "" {
		return ix
	}
	members := r.model.GetMembers(desc)
	for _, m := range *members.List(section) {
		entry := Entry{
			Name:     m.Name,
			Kind:     kind,
			Value:    m.Value,
			Site:     m.Source,
			Indirect: isReference(m.Value) || m.Value.Is(treesitterhelper.KindShorthand),
		}
		if kind == KindComponent {
			entry.Target = r.model.ResolveComponent(m.Value)
		}
		ix.add(entry)
	}
	return ix
}

func localSection(kind Kind) component.Section {
	switch kind {
	case KindComponent:
		return component.SectionComponents
	case KindDirective:
		return component.SectionDirectives
	case KindFilter:
		return component.SectionFilters
	}
	return ""
}

// Resolve finds what name refers to at ctx: a registration of the enclosing
// component, then one made in the same file, then a project-wide one
func (r *Registry) Resolve(kind Kind, name string, ctx *source.Node) (Entry, bool) {
	if desc := r.model.ComponentAt(ctx); desc != nil {
		if e, ok := r.Local(desc, kind).Select(name); ok {
			return e, true
		}
	}
	return r.lookup(kind, name, ctx)
}

// lookup skips component-local registrations. It runs while the mixins of
// a component are computed, so it must not ask for members.
func (r *Registry) lookup(kind Kind, name string, ctx *source.Node) (Entry, bool) {
	if path := ctx.Path(); path != "" {
		if e, ok := r.Index(kind, source.FilesScope(path)).Select(name); ok {
			return e, true
		}
	}
	return r.Index(kind, source.ProjectScope()).Select(name)
}

// LookupComponent returns the component registered under name
func (r *Registry) LookupComponent(name string, ctx *source.Node) *component.Descriptor {
	e, ok := r.lookup(KindComponent, name, ctx)
	if !ok {
		return nil
	}
	return e.Target
}

// LookupMixin returns the mixin registered under name
func (r *Registry) LookupMixin(name string, ctx *source.Node) *component.Descriptor {
	e, ok := r.lookup(KindMixin, name, ctx)
	if !ok {
		return nil
	}
	return e.Target
}

// Stats returns the counters of the index cache
func (r *Registry) Stats() cache.Stats {
	return r.indexes.Stats()
}

// Prune drops indexes built for an older project state
func (r *Registry) Prune() int {
	return r.indexes.Prune()
}
