// Package component turns declaration nodes into components and resolves
// their public surface: props, data, computed values, methods, events,
// slots, provides, injects and locally registered children. Every query is
// best effort; unresolvable references degrade to absent members.
package component

import (
	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
	"github.com/shopware/vuemodel/internal/types"
)

// Host is the parsing and indexing collaborator the resolver queries.
// *project.Project implements it.
type Host interface {
	ResolveLocally(name string, ctx *source.Node) *source.Node
	ResolveQualifiedName(parts []string, ctx *source.Node) *source.Node
	FindAllTagged(scope source.Scope, tag project.Tag) []*source.Node
	InferType(node *source.Node) *types.Type
	InferTypeNode(node *source.Node) *types.Type
	ModificationStamp() int64
}

// Registry looks components and mixins up by registered name. It lets a
// declaration reference a parent by name (`Component.extend('a', 'b', {})`,
// `Mixin.getByName('b')`).
type Registry interface {
	LookupComponent(name string, ctx *source.Node) *Descriptor
	LookupMixin(name string, ctx *source.Node) *Descriptor
}

var _ Host = (*project.Project)(nil)
