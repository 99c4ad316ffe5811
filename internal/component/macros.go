package component

import (
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
	"github.com/shopware/vuemodel/internal/types"
)

const (
	defaultModelName  = "modelValue"
	updateEventPrefix = "update:"
)

// macroNames are recognized by name, wherever they are imported from
var macroNames = []string{
	"defineProps",
	"withDefaults",
	"defineEmits",
	"defineSlots",
	"defineExpose",
	"defineModel",
	"provide",
	"inject",
}

var macroPattern = treesitterhelper.JSCallToPattern(macroNames...)

// bindingMacros produce values that are not raw bindings of the component
var bindingMacros = []string{"defineProps", "withDefaults", "defineEmits", "defineSlots", "defineExpose", "defineOptions"}

// macros applies every macro call below root, without entering nested
// functions
func (x *extractor) macros(root *source.Node, members *Members) {
	for _, ts := range treesitterhelper.FindAllOutside(root.TS(), macroPattern, treesitterhelper.JSFunctionPattern, root.Content()) {
		call := root.Wrap(ts)
		switch call.Field("function").Text() {
		case "defineProps":
			x.defineProps(call, members)
		case "defineEmits":
			x.defineEmits(call, members)
		case "defineSlots":
			x.defineSlots(call, members)
		case "defineExpose":
			x.defineExpose(call, members)
		case "defineModel":
			x.defineModel(call, members)
		case "provide":
			x.provide(call, members)
		case "inject":
			x.inject(call, members)
		}
		// withDefaults is read together with the defineProps call it wraps
	}
}

func argument(call *source.Node, i int) *source.Node {
	args := treesitterhelper.Arguments(call.TS())
	if i >= len(args) {
		return nil
	}
	return call.Wrap(args[i])
}

func typeArgument(call *source.Node, i int) *source.Node {
	args := treesitterhelper.TypeArguments(call.TS())
	if i >= len(args) {
		return nil
	}
	return call.Wrap(args[i])
}

// defineProps reads props from the type argument or, without one, from
// the runtime declaration. Defaults come from withDefaults or from the
// destructuring pattern the result is assigned to.
func (x *extractor) defineProps(call *source.Node, members *Members) {
	var props []Member
	if typeArg := typeArgument(call, 0); typeArg != nil {
		t := x.host.InferTypeNode(typeArg)
		for _, tm := range t.Members {
			m := newMember(tm.Name, tm.Node)
			m.Type = tm.Type
			m.Required = !tm.Optional
			props = append(props, m)
		}
	} else if arg := argument(call, 0); arg != nil {
		props = x.props(arg)
	}

	defaults := x.propDefaults(call)
	for _, m := range props {
		if def, ok := defaults[m.Name]; ok {
			m.Default = def
		}
		members.Add(SectionProps, m)
	}
}

// propDefaults collects `withDefaults(defineProps(), { a: 1 })` and
// `const { a = 1 } = defineProps()` defaults
func (x *extractor) propDefaults(call *source.Node) map[string]*source.Node {
	defaults := make(map[string]*source.Node)

	expr := call
	if args := call.Parent(); args.Is("arguments") {
		if outer := args.Parent(); outer.Is(treesitterhelper.KindCall) && outer.Field("function").Text() == "withDefaults" {
			for _, p := range readValue(x.host, argument(outer, 1), false, nil) {
				defaults[p.Name] = p.Value
			}
			expr = outer
		}
	}

	decl := expr.Parent()
	if decl.Is("variable_declarator") && decl.Field("name").Is("object_pattern") {
		for _, entry := range decl.Field("name").NamedChildren() {
			switch entry.Kind() {
			case "object_assignment_pattern":
				defaults[entry.Field("left").Text()] = entry.Field("right")
			case "pair_pattern":
				if value := entry.Field("value"); value.Is("assignment_pattern") {
					key := treesitterhelper.PropertyKeyName(entry.Field("key").TS(), entry.Content())
					defaults[key] = value.Field("right")
				}
			}
		}
	}
	return defaults
}

// defineEmits accepts an event array, a validator object, a call-signature
// type or the `{ event: [payload] }` shorthand type
func (x *extractor) defineEmits(call *source.Node, members *Members) {
	if typeArg := typeArgument(call, 0); typeArg != nil {
		for _, m := range emitsFromType(x.host.InferTypeNode(typeArg)) {
			members.Add(SectionEmits, m)
		}
		return
	}
	for _, m := range x.emits(argument(call, 0)) {
		members.Add(SectionEmits, m)
	}
}

func emitsFromType(t *types.Type) []Member {
	var members []Member

	signatures := t.Calls
	if t.IsFunction() {
		signatures = []*types.Type{t}
	}
	for _, sig := range signatures {
		if len(sig.Params) == 0 {
			continue
		}
		for _, name := range literalNames(sig.Params[0].Type) {
			m := newMember(name, sig.Node)
			m.Params = sig.Params[1:]
			members = append(members, m)
		}
	}

	for _, tm := range t.Members {
		m := newMember(tm.Name, tm.Node)
		switch {
		case tm.Type.Kind == types.Tuple:
			m.Params = tm.Type.Params
		case tm.Type.IsFunction():
			m.Params = tm.Type.Params
		}
		members = append(members, m)
	}
	return members
}

// literalNames returns the string values of a literal type or a union of
// literal types
func literalNames(t *types.Type) []string {
	switch t.Kind {
	case types.Literal:
		return []string{treesitterhelper.Unquote(t.Literal)}
	case types.Union:
		var names []string
		for _, e := range t.Elems {
			names = append(names, literalNames(e)...)
		}
		return names
	}
	return nil
}

func (x *extractor) defineSlots(call *source.Node, members *Members) {
	typeArg := typeArgument(call, 0)
	if typeArg == nil {
		return
	}
	for _, m := range slotMembers(x.host.InferTypeNode(typeArg)) {
		members.Add(SectionSlots, m)
	}
}

// defineExpose publishes its argument's members as bindings. Reference
// wrappers are kept: exposed refs stay refs for the parent.
func (x *extractor) defineExpose(call *source.Node, members *Members) {
	arg := argument(call, 0)
	if arg == nil {
		return
	}
	t := x.host.InferType(arg)
	for _, tm := range t.Members {
		m := newMember(tm.Name, tm.Node)
		m.Type = tm.Type
		m.Exposed = true
		members.Add(bindingSection(types.Unwrap(tm.Type)), m)
	}
}

// defineModel declares a prop and its `update:` event
func (x *extractor) defineModel(call *source.Node, members *Members) {
	name := defaultModelName
	var options *source.Node

	first := unwrap(argument(call, 0))
	switch {
	case treesitterhelper.IsStringLiteral(first.TS()):
		name = treesitterhelper.StringContent(first.TS(), first.Content())
		options = resolveValue(x.host, argument(call, 1))
	case first != nil:
		options = resolveValue(x.host, first)
	}
	if !options.Is(treesitterhelper.KindObject) {
		options = nil
	}

	prop := newMember(name, call)
	prop.Value = options
	if typeArg := typeArgument(call, 0); typeArg != nil {
		prop.Type = x.host.InferTypeNode(typeArg)
	} else if typeValue := findValue(options, "type"); typeValue != nil {
		prop.Type = x.runtimeType(typeValue)
	}
	prop.Required = findValue(options, "required").Is("true")
	prop.Local = findValue(options, "local").Is("true")
	prop.Default = findValue(options, "default")
	members.Add(SectionProps, prop)

	emit := newMember(updateEventPrefix+name, call)
	emit.Params = []types.Param{{Name: "value", Type: prop.Type}}
	members.Add(SectionEmits, emit)
}

// injectionKey reads the key argument of provide/inject: a string, or a
// reference to a symbol
func injectionKey(arg *source.Node) (string, *source.Node) {
	arg = unwrap(arg)
	if treesitterhelper.IsStringLiteral(arg.TS()) {
		return treesitterhelper.StringContent(arg.TS(), arg.Content()), nil
	}
	return arg.Text(), arg
}

func (x *extractor) provide(call *source.Node, members *Members) {
	key, _ := injectionKey(argument(call, 0))
	if key == "" {
		return
	}
	m := newMember(key, call)
	m.Key = key
	m.Value = argument(call, 1)
	m.Type = x.host.InferType(m.Value)
	members.Add(SectionProvide, m)
}

func (x *extractor) inject(call *source.Node, members *Members) {
	key, keyNode := injectionKey(argument(call, 0))
	if key == "" {
		return
	}
	m := newMember(key, call)
	m.Key = key
	m.Value = call
	m.Default = argument(call, 1)
	m.Type = x.injectionType(keyNode, typeArgument(call, 0), m.Default)
	members.Add(SectionInject, m)
}

// bindingSection classifies a raw binding by its unwrapped type
func bindingSection(t *types.Type) Section {
	switch {
	case t.IsFunction():
		return SectionMethods
	case t != nil && t.ReadOnly:
		return SectionComputed
	}
	return SectionData
}
