package component

import (
	"slices"
	"sync"

	"github.com/shopware/vuemodel/internal/cache"
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
)

// Options configure a Model
type Options struct {
	// DefiningCalls are extra call names that wrap an options literal
	DefiningCalls []string

	// DirectivePrefix marks script setup bindings that are directives
	DirectivePrefix string

	// DisableCache makes every query recompute, for one-shot batch runs
	DisableCache bool
}

// Model is the composite component model. It classifies declaration nodes
// and derives the merged member surface of a component on demand. Results
// are cached by node identity and the host's modification stamp; every
// query is safe for concurrent use.
type Model struct {
	host       Host
	classifier *classifier
	extractor  *extractor

	registryMu sync.RWMutex
	registry   Registry

	components *cache.Memo[source.NodeID, *Descriptor]
	own        *cache.Memo[source.NodeID, Members]
	mixins     *cache.Memo[source.NodeID, []Mixin]
	members    *cache.Memo[source.NodeID, Members]
	scoped     *cache.Memo[string, Members]
}

// NewModel creates a model answering queries against host
func NewModel(host Host, opts Options) *Model {
	if opts.DirectivePrefix == "" {
		opts.DirectivePrefix = "v"
	}

	m := &Model{
		host:       host,
		classifier: newClassifier(host, opts.DefiningCalls),
	}
	m.extractor = &extractor{
		host:            host,
		classify:        m.classifier.classify,
		directivePrefix: opts.DirectivePrefix,
	}

	if opts.DisableCache {
		m.components = cache.Disabled[source.NodeID, *Descriptor]("components")
		m.own = cache.Disabled[source.NodeID, Members]("own-members")
		m.mixins = cache.Disabled[source.NodeID, []Mixin]("mixins")
		m.members = cache.Disabled[source.NodeID, Members]("members")
		m.scoped = cache.Disabled[string, Members]("scoped-members")
	} else {
		stamp := host.ModificationStamp
		m.components = cache.NewMemo[source.NodeID, *Descriptor]("components", stamp)
		m.own = cache.NewMemo[source.NodeID, Members]("own-members", stamp)
		m.mixins = cache.NewMemo[source.NodeID, []Mixin]("mixins", stamp)
		m.members = cache.NewMemo[source.NodeID, Members]("members", stamp)
		m.scoped = cache.NewMemo[string, Members]("scoped-members", stamp)
	}
	return m
}

// Host returns the collaborator the model queries
func (m *Model) Host() Host {
	return m.host
}

// SetRegistry installs the lookup used for parents referenced by name
func (m *Model) SetRegistry(r Registry) {
	m.registryMu.Lock()
	m.registry = r
	m.registryMu.Unlock()
}

func (m *Model) Registry() Registry {
	m.registryMu.RLock()
	defer m.registryMu.RUnlock()
	return m.registry
}

// ResolveComponent classifies node, trying in order: options literal,
// defining call, decorated class, script setup and whole file. It returns
// nil when node does not declare a component.
func (m *Model) ResolveComponent(node *source.Node) *Descriptor {
	if node == nil {
		return nil
	}
	return m.components.Get(node.ID(), node, func() *Descriptor {
		return m.classifier.classify(node)
	})
}

// OwnMembers returns the members a component declares itself, without
// anything inherited
func (m *Model) OwnMembers(desc *Descriptor) Members {
	if desc == nil {
		return Members{}
	}
	return m.own.Get(desc.ID(), desc.Node, func() Members {
		return m.extractor.extract(desc)
	}).Clone()
}

// GetMixins returns the parents of a component in merge order. Parents
// that cannot be resolved are kept as tombstones.
func (m *Model) GetMixins(desc *Descriptor) []Mixin {
	if desc == nil {
		return nil
	}
	return slices.Clone(m.mixins.Get(desc.ID(), desc.Node, func() []Mixin {
		return m.resolveMixins(desc)
	}))
}

// GetMembers returns the merged surface of a component: extends parents,
// then mixins in declared order, then its own members, later sources
// replacing earlier ones by name
func (m *Model) GetMembers(desc *Descriptor) Members {
	if desc == nil {
		return Members{}
	}
	return m.members.Get(desc.ID(), desc.Node, func() Members {
		return m.flatten(desc, make(map[source.NodeID]bool))
	}).Clone()
}

// flatten merges a component with its parents. visiting holds the
// components on the current path, so diamonds are merged and cycles cut.
func (m *Model) flatten(desc *Descriptor, visiting map[source.NodeID]bool) Members {
	id := desc.ID()
	if visiting[id] {
		return Members{}
	}
	visiting[id] = true
	defer delete(visiting, id)

	var result Members
	for _, mixin := range m.GetMixins(desc) {
		if mixin.Tombstone() {
			continue
		}
		result.Merge(m.flatten(mixin.Descriptor, visiting))
	}
	result.Merge(m.OwnMembers(desc))
	return result
}

// GlobalMixins returns the mixins installed application-wide within scope
func (m *Model) GlobalMixins(scope source.Scope) []Mixin {
	var result []Mixin
	for _, call := range m.host.FindAllTagged(scope, project.TagGlobalMixin) {
		ref := argument(call, 0)
		result = append(result, Mixin{Descriptor: m.ResolveComponent(ref), Reference: ref})
	}
	return result
}

// GetMembersInScope is GetMembers with the global mixins of scope merged
// below everything the component declares or inherits
func (m *Model) GetMembersInScope(desc *Descriptor, scope source.Scope) Members {
	if desc == nil {
		return Members{}
	}
	key := scope.Key() + "|" + desc.ID().String()
	return m.scoped.Get(key, desc.Node, func() Members {
		var result Members
		for _, mixin := range m.GlobalMixins(scope) {
			if mixin.Tombstone() || mixin.Descriptor.ID() == desc.ID() {
				continue
			}
			result.Merge(m.GetMembers(mixin.Descriptor))
		}
		result.Merge(m.GetMembers(desc))
		return result
	}).Clone()
}

// Definitions lists the components declared within scope, in scan order
func (m *Model) Definitions(scope source.Scope) []*Descriptor {
	var result []*Descriptor
	seen := make(map[source.NodeID]bool)
	for _, node := range m.host.FindAllTagged(scope, project.TagComponentDefinition) {
		desc := m.ResolveComponent(node)
		if desc == nil || seen[desc.ID()] {
			continue
		}
		seen[desc.ID()] = true
		result = append(result, desc)
	}
	return result
}

// ComponentAt returns the outermost component whose declaration contains
// node
func (m *Model) ComponentAt(node *source.Node) *Descriptor {
	var found *Descriptor
	for n := node; n != nil; n = n.Parent() {
		switch n.Kind() {
		case "object", "call_expression", "class_declaration", "class", "abstract_class_declaration", "program":
			if desc := m.ResolveComponent(n); desc != nil {
				found = desc
			}
		}
	}
	return found
}

// Stats returns the counters of every cache
func (m *Model) Stats() []cache.Stats {
	return []cache.Stats{
		m.components.Stats(),
		m.own.Stats(),
		m.mixins.Stats(),
		m.members.Stats(),
		m.scoped.Stats(),
	}
}

// Prune drops cache entries computed for an older project state
func (m *Model) Prune() int {
	return m.components.Prune() + m.own.Prune() + m.mixins.Prune() + m.members.Prune() + m.scoped.Prune()
}
