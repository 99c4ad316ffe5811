package component

import (
	"slices"
	"strings"

	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// baseClasses are framework classes, not parent components
var baseClasses = []string{"Vue", "Component"}

// Mixin is a resolved parent of a component. A mixin whose reference could
// not be resolved is a tombstone: it keeps its position for diagnostics and
// contributes no members.
type Mixin struct {
	Descriptor *Descriptor

	// Reference is the node naming the parent
	Reference *source.Node

	// Extends marks `extends` parents, which rank below mixins
	Extends bool
}

// Tombstone reports whether the reference could not be resolved
func (m Mixin) Tombstone() bool {
	return m.Descriptor == nil
}

// mixinRef is an unresolved parent reference
type mixinRef struct {
	node    *source.Node
	extends bool
	// byName is set for parents referenced by registered name
	byName string
	mixin  bool
}

// resolveMixins resolves the parents of a descriptor in merge order: every
// `extends` parent first, then the mixins in declared order
func (m *Model) resolveMixins(desc *Descriptor) []Mixin {
	refs := parentRefs(desc)
	slices.SortStableFunc(refs, func(a, b mixinRef) int {
		switch {
		case a.extends == b.extends:
			return 0
		case a.extends:
			return -1
		}
		return 1
	})

	result := make([]Mixin, 0, len(refs))
	for _, ref := range refs {
		result = append(result, Mixin{
			Descriptor: m.resolveParent(ref),
			Reference:  ref.node,
			Extends:    ref.extends,
		})
	}
	return result
}

func (m *Model) resolveParent(ref mixinRef) *Descriptor {
	if ref.byName != "" {
		registry := m.Registry()
		if registry == nil {
			return nil
		}
		if ref.mixin {
			return registry.LookupMixin(ref.byName, ref.node)
		}
		return registry.LookupComponent(ref.byName, ref.node)
	}
	return m.ResolveComponent(ref.node)
}

// parentRefs collects the parent references of every place a descriptor
// can declare them
func parentRefs(desc *Descriptor) []mixinRef {
	var refs []mixinRef

	switch decl := desc.Declaration.(type) {
	case OptionsLiteral:
		refs = append(refs, callParents(decl)...)
		refs = append(refs, optionParents(desc.Initializer)...)
	case ClassDecorator:
		refs = append(refs, heritageParents(decl.Class)...)
		refs = append(refs, optionParents(desc.Initializer)...)
	case ScriptSetup:
		refs = append(refs, optionParents(decl.Options)...)
		refs = append(refs, optionParents(decl.DefineOptions)...)
	}
	return refs
}

// callParents handles parents given by the wrapping call:
// `Base.extend({...})` and `Component.extend('name', 'parent', {...})`
func callParents(decl OptionsLiteral) []mixinRef {
	if decl.Call != nil {
		callee := decl.Call.Field("function")
		if callee.Is(treesitterhelper.KindMember) && callee.Field("property").Text() == "extend" {
			base := callee.Field("object")
			if !slices.Contains(baseClasses, base.Text()) {
				return []mixinRef{{node: base, extends: true}}
			}
		}
		return nil
	}

	args := decl.Literal.Parent()
	if !args.Is("arguments") {
		return nil
	}
	call := args.Parent()
	callee := call.Field("function")
	if !callee.Is(treesitterhelper.KindMember) || callee.Field("property").Text() != "extend" {
		return nil
	}
	receiver := callee.Field("object").Text()
	if receiver != "Component" && !strings.HasSuffix(receiver, ".Component") {
		return nil
	}
	parent := argument(call, 1)
	if !treesitterhelper.IsStringLiteral(parent.TS()) {
		return nil
	}
	return []mixinRef{{
		node:    parent,
		extends: true,
		byName:  treesitterhelper.StringContent(parent.TS(), parent.Content()),
	}}
}

// optionParents reads the `extends` and `mixins` options
func optionParents(init *source.Node) []mixinRef {
	var refs []mixinRef
	if ext := findValue(init, "extends"); ext != nil {
		refs = append(refs, parentRef(ext, true))
	}

	list := unwrap(findValue(init, "mixins"))
	if list.Is(treesitterhelper.KindArray) {
		for _, el := range list.NamedChildren() {
			if el.Is(treesitterhelper.KindSpread) {
				continue
			}
			refs = append(refs, parentRef(el, false))
		}
	}
	return refs
}

// parentRef recognizes `Mixin.getByName('name')` and a plain string in
// extends as references by registered name
func parentRef(node *source.Node, extends bool) mixinRef {
	node = unwrap(node)
	ref := mixinRef{node: node, extends: extends}

	switch {
	case treesitterhelper.IsStringLiteral(node.TS()):
		ref.byName = treesitterhelper.StringContent(node.TS(), node.Content())
		ref.mixin = !extends
	case node.Is(treesitterhelper.KindCall):
		callee := node.Field("function")
		if callee.Is(treesitterhelper.KindMember) && callee.Field("property").Text() == "getByName" {
			receiver := callee.Field("object").Text()
			if receiver == "Mixin" || strings.HasSuffix(receiver, ".Mixin") {
				if arg := argument(node, 0); treesitterhelper.IsStringLiteral(arg.TS()) {
					ref.byName = treesitterhelper.StringContent(arg.TS(), arg.Content())
					ref.mixin = true
				}
			}
		}
	}
	return ref
}

// heritageParents reads `class A extends Base` and
// `class A extends mixins(M1, M2)`
func heritageParents(cls *source.Node) []mixinRef {
	heritage := cls.Child("class_heritage")
	if heritage == nil {
		return nil
	}
	value := heritage.NamedChild(0)
	if value.Is("extends_clause") {
		value = value.Field("value")
	}
	value = unwrap(value)

	if value.Is(treesitterhelper.KindCall) {
		if name := calleeName(value); name == "mixins" || name == "Mixins" {
			var refs []mixinRef
			for _, arg := range treesitterhelper.Arguments(value.TS()) {
				refs = append(refs, mixinRef{node: value.Wrap(arg)})
			}
			return refs
		}
		return nil
	}
	if value == nil || slices.Contains(baseClasses, value.Text()) {
		return nil
	}
	return []mixinRef{{node: value, extends: true}}
}
