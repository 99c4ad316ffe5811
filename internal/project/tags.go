package project

import (
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// Tag names a kind of site the project indexes per file
type Tag string

const (
	TagComponentRegistration Tag = "component-registration"
	TagDirectiveRegistration Tag = "directive-registration"
	TagFilterRegistration    Tag = "filter-registration"
	TagGlobalMixin           Tag = "global-mixin"
	TagMixinRegistration     Tag = "mixin-registration"
	TagComponentDefinition   Tag = "component-definition"
)

// AllTags lists every tag in a stable order
var AllTags = []Tag{
	TagComponentRegistration,
	TagDirectiveRegistration,
	TagFilterRegistration,
	TagGlobalMixin,
	TagMixinRegistration,
	TagComponentDefinition,
}

// DefiningCalls are the call names that wrap a component options literal
var DefiningCalls = []string{
	"defineComponent",
	"defineNuxtComponent",
	"defineVaporComponent",
	"Vue.extend",
	"Component.wrapComponentConfig",
	"Shopware.Component.wrapComponentConfig",
	"wrapComponentConfig",
}

// registerCall matches `app.method(...)` calls with at least one argument
func registerCall(methods ...string) treesitterhelper.Pattern {
	return treesitterhelper.And(
		treesitterhelper.JSMethodCallPattern(methods...),
		treesitterhelper.FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
			return len(treesitterhelper.Arguments(node)) > 0
		}),
	)
}

// shopwareRegistration matches Component.register(name, ...) and
// Component.extend(name, parent, ...)
var shopwareRegistration = registryCall("Component", "register", "extend")

// registryCall matches calls of the given methods on a named registry
// object, plain (`Mixin.register`) or namespaced (`Shopware.Mixin.register`)
func registryCall(registry string, methods ...string) treesitterhelper.Pattern {
	return treesitterhelper.And(
		treesitterhelper.JSMethodCallPattern(methods...),
		treesitterhelper.FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
			receiver := node.ChildByFieldName("function").ChildByFieldName("object")
			if receiver == nil {
				return false
			}
			text := receiver.Utf8Text(content)
			return text == registry || strings.HasSuffix(text, "."+registry)
		}),
	)
}

var componentDecoratorPattern = treesitterhelper.And(
	treesitterhelper.NodeKind("decorator"),
	treesitterhelper.FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
		name := DecoratorName(node, content)
		return name == "Component" || name == "Options"
	}),
)

func tagPatterns(definingCalls []string) map[Tag]treesitterhelper.Pattern {
	return map[Tag]treesitterhelper.Pattern{
		TagComponentRegistration: treesitterhelper.Or(
			registerCall("component"),
			shopwareRegistration,
		),
		TagDirectiveRegistration: registerCall("directive"),
		TagFilterRegistration:    registerCall("filter"),
		TagGlobalMixin: treesitterhelper.And(
			registerCall("mixin"),
			treesitterhelper.FuncPattern(func(node *tree_sitter.Node, content []byte) bool {
				receiver := node.ChildByFieldName("function").ChildByFieldName("object")
				return receiver != nil && receiver.Kind() != "this"
			}),
		),
		TagMixinRegistration: registryCall("Mixin", "register"),
		TagComponentDefinition: treesitterhelper.Or(
			treesitterhelper.JSCallToPattern(definingCalls...),
			treesitterhelper.JSExportDefaultPattern,
			componentDecoratorPattern,
		),
	}
}

// DecoratorName returns the callee name of a decorator: `@Component` and
// `@Component({...})` both give "Component"
func DecoratorName(decorator *tree_sitter.Node, content []byte) string {
	if decorator == nil || decorator.NamedChildCount() == 0 {
		return ""
	}
	expr := decorator.NamedChild(0)
	if expr.Kind() == "call_expression" {
		expr = expr.ChildByFieldName("function")
	}
	if expr == nil {
		return ""
	}
	if expr.Kind() == "member_expression" {
		expr = expr.ChildByFieldName("property")
	}
	return expr.Utf8Text(content)
}

// ScanTags collects the tagged sites of a file in source order
func ScanTags(file *source.File, extraDefiningCalls ...string) map[Tag][]*source.Node {
	patterns := tagPatterns(slices.Concat(DefiningCalls, extraDefiningCalls))
	tags := make(map[Tag][]*source.Node)

	for _, script := range file.Scripts {
		root := script.Root()
		if root == nil {
			continue
		}
		for _, tag := range AllTags {
			for _, match := range treesitterhelper.FindAll(root.TS(), patterns[tag], script.Content) {
				tags[tag] = append(tags[tag], root.Wrap(match))
			}
		}
	}

	// a script setup file is a component definition by itself
	if file.IsSFC() {
		if setup := file.SetupScript(); setup != nil {
			tags[TagComponentDefinition] = append(tags[TagComponentDefinition], setup.Root())
		} else if len(tags[TagComponentDefinition]) == 0 {
			tags[TagComponentDefinition] = append(tags[TagComponentDefinition], file.Root())
		}
	}

	return tags
}

// FindAllTagged returns the tagged sites of every file in scope, ordered by
// path and then by source position
func (p *Project) FindAllTagged(scope source.Scope, tag Tag) []*source.Node {
	var result []*source.Node
	for _, path := range p.scopePaths(scope) {
		p.mu.RLock()
		e, ok := p.files[path]
		p.mu.RUnlock()
		if !ok {
			continue
		}
		result = append(result, e.tags[tag]...)
	}
	return result
}

func (p *Project) scopePaths(scope source.Scope) []string {
	if scope.IsProject() {
		return p.Paths()
	}
	return scope.Paths()
}
