package component

import (
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
	"github.com/shopware/vuemodel/internal/types"
)

// constructorTypes maps the runtime prop type constructors to types
var constructorTypes = map[string]func() *types.Type{
	"String":   func() *types.Type { return types.NewPrimitive("string") },
	"Number":   func() *types.Type { return types.NewPrimitive("number") },
	"Boolean":  func() *types.Type { return types.NewPrimitive("boolean") },
	"Symbol":   func() *types.Type { return types.NewPrimitive("symbol") },
	"BigInt":   func() *types.Type { return types.NewPrimitive("bigint") },
	"Object":   func() *types.Type { return types.NewNamed("Record", types.NewPrimitive("string"), types.NewPrimitive("any")) },
	"Array":    func() *types.Type { return &types.Type{Kind: types.Array, Elem: types.UnknownType()} },
	"Function": func() *types.Type { return types.NewNamed("Function") },
	"Date":     func() *types.Type { return types.NewNamed("Date") },
}

// extractor reads the members of one descriptor
type extractor struct {
	host            Host
	classify        func(*source.Node) *Descriptor
	directivePrefix string
}

// options extracts every section of an options literal
func (x *extractor) options(init *source.Node, members *Members) {
	if init == nil {
		return
	}

	for _, m := range x.props(findValue(init, "props")) {
		members.Add(SectionProps, m)
	}

	for _, p := range readSection(x.host, init, "data", false, nil) {
		m := p.member()
		m.Type = types.Unwrap(x.host.InferType(p.Value))
		members.Add(SectionData, m)
	}

	for _, p := range readSection(x.host, init, "computed", false, FunctionValued(x.host)) {
		m := p.member()
		m.Type = x.computedType(p.Value)
		members.Add(SectionComputed, m)
	}

	for _, p := range readSection(x.host, init, "methods", false, FunctionValued(x.host)) {
		m := p.member()
		m.Type = x.host.InferType(resolveValue(x.host, p.Value))
		members.Add(SectionMethods, m)
	}

	for _, m := range x.emits(findValue(init, "emits")) {
		members.Add(SectionEmits, m)
	}

	for _, m := range x.slotsOption(findValue(init, "slots")) {
		members.Add(SectionSlots, m)
	}

	for _, p := range readSection(x.host, init, "provide", false, nil) {
		m := p.member()
		m.Key = p.Name
		m.Type = x.host.InferType(p.Value)
		members.Add(SectionProvide, m)
	}

	for _, m := range x.injects(findValue(init, "inject")) {
		members.Add(SectionInject, m)
	}

	for _, section := range []Section{SectionComponents, SectionDirectives, SectionFilters} {
		for _, p := range readSection(x.host, init, string(section), false, nil) {
			members.Add(section, p.member())
		}
	}

	if setup, ok := findProperty(init, "setup"); ok {
		if fn := resolveValue(x.host, setup.Value); fn.Is(treesitterhelper.FunctionKinds...) {
			x.setupFunction(fn, members)
		}
	}
}

// findValue returns the value of a direct property, or nil
func findValue(obj *source.Node, name string) *source.Node {
	if p, ok := findProperty(obj, name); ok {
		return p.Value
	}
	return nil
}

// props reads runtime prop declarations: a string array, or an object whose
// values are constructors, constructor arrays or option objects
func (x *extractor) props(value *source.Node) []Member {
	if value == nil {
		return nil
	}
	var members []Member
	for _, p := range readValue(x.host, value, true, nil) {
		m := p.member()
		if !treesitterhelper.IsStringLiteral(p.Node.TS()) {
			x.describeProp(&m, p.Value)
		}
		members = append(members, m)
	}
	return members
}

// describeProp fills type, required flag and default of a prop from its
// runtime declaration
func (x *extractor) describeProp(m *Member, value *source.Node) {
	resolved := resolveValue(x.host, value)
	if !resolved.Is(treesitterhelper.KindObject) {
		m.Type = x.runtimeType(value)
		return
	}

	if typeValue := findValue(resolved, "type"); typeValue != nil {
		m.Type = x.runtimeType(typeValue)
	}
	if required := findValue(resolved, "required"); required.Is("true") {
		m.Required = true
	}
	if def := findValue(resolved, "default"); def != nil {
		m.Default = def
	}
}

// runtimeType converts a runtime type declaration: `String`,
// `[String, Number]` or `Object as PropType<User>`
func (x *extractor) runtimeType(node *source.Node) *types.Type {
	if node.Is("as_expression") {
		if t := propTypeArgument(node.NamedChild(1)); t != nil {
			return x.host.InferTypeNode(t)
		}
		node = node.NamedChild(0)
	}
	node = unwrap(node)

	switch node.Kind() {
	case treesitterhelper.KindIdentifier:
		if ctor, ok := constructorTypes[node.Text()]; ok {
			return ctor()
		}
		return types.NewNamed(node.Text())
	case treesitterhelper.KindArray:
		var elems []*types.Type
		for _, el := range node.NamedChildren() {
			elems = append(elems, x.runtimeType(el))
		}
		return types.NewUnion(elems...)
	}
	return types.UnknownType()
}

// propTypeArgument returns T of a `PropType<T>` type node
func propTypeArgument(typeNode *source.Node) *source.Node {
	if !typeNode.Is("generic_type") {
		return nil
	}
	switch typeNode.Field("name").Text() {
	case "PropType", "SlotsType":
		return typeNode.Field("type_arguments").NamedChild(0)
	}
	return nil
}

// computedType is the value type of a computed getter or get/set object
func (x *extractor) computedType(value *source.Node) *types.Type {
	resolved := resolveValue(x.host, value)
	if resolved.Is(treesitterhelper.KindObject) {
		resolved = resolveValue(x.host, findValue(resolved, "get"))
	}
	fn := x.host.InferType(resolved)
	if fn.IsFunction() && fn.Return != nil {
		return types.Unwrap(fn.Return)
	}
	return types.UnknownType()
}

// emits reads an event array or an object of validators
func (x *extractor) emits(value *source.Node) []Member {
	if value == nil {
		return nil
	}
	var members []Member
	for _, p := range readValue(x.host, value, true, nil) {
		m := p.member()
		if validator := resolveValue(x.host, p.Value); validator.Is(treesitterhelper.FunctionKinds...) {
			if fn := x.host.InferType(validator); fn.IsFunction() {
				m.Params = fn.Params
			}
		}
		members = append(members, m)
	}
	return members
}

// slotsOption reads `slots: Object as SlotsType<{...}>`
func (x *extractor) slotsOption(value *source.Node) []Member {
	value = unwrapParens(value)
	if !value.Is("as_expression") {
		return nil
	}
	arg := propTypeArgument(value.NamedChild(1))
	if arg == nil {
		return nil
	}
	return slotMembers(x.host.InferTypeNode(arg))
}

// slotMembers turns the members of a slots type into slots; the first
// parameter of each slot function is its payload
func slotMembers(t *types.Type) []Member {
	var members []Member
	for _, tm := range t.Members {
		m := newMember(tm.Name, tm.Node)
		m.Required = !tm.Optional
		if tm.Type.IsFunction() && len(tm.Type.Params) > 0 {
			m.Type = tm.Type.Params[0].Type
		}
		members = append(members, m)
	}
	return members
}

// injects reads an array of keys, or an object of keys or per-key options
// `{ from, default }`
func (x *extractor) injects(value *source.Node) []Member {
	if value == nil {
		return nil
	}
	var members []Member
	for _, p := range readValue(x.host, value, true, nil) {
		m := p.member()
		m.Key = p.Name
		var keyNode *source.Node

		option := unwrap(p.Value)
		switch {
		case treesitterhelper.IsStringLiteral(p.Node.TS()):
			// array form
		case treesitterhelper.IsStringLiteral(option.TS()):
			m.Key = treesitterhelper.StringContent(option.TS(), option.Content())
		case option.Is(treesitterhelper.KindIdentifier, treesitterhelper.KindMember):
			keyNode = option
			m.Key = option.Text()
		case option.Is(treesitterhelper.KindObject):
			if from := unwrap(findValue(option, "from")); from != nil {
				if treesitterhelper.IsStringLiteral(from.TS()) {
					m.Key = treesitterhelper.StringContent(from.TS(), from.Content())
				} else {
					keyNode = from
					m.Key = from.Text()
				}
			}
			m.Default = findValue(option, "default")
		}

		m.Type = x.injectionType(keyNode, nil, m.Default)
		members = append(members, m)
	}
	return members
}

// injectionType derives the type of an injected value from an explicit
// type argument, the InjectionKey<T> type of a symbol key, or the default
func (x *extractor) injectionType(key, typeArg, def *source.Node) *types.Type {
	if typeArg != nil {
		return x.host.InferTypeNode(typeArg)
	}
	if key != nil {
		if t := x.host.InferType(key); t.Kind == types.Named && t.Name == "InjectionKey" && len(t.Args) > 0 {
			return t.Args[0]
		}
	}
	if def != nil {
		return types.Unwrap(x.host.InferType(def))
	}
	return types.UnknownType()
}

func unwrapParens(node *source.Node) *source.Node {
	for node.Is("parenthesized_expression") {
		node = node.NamedChild(0)
	}
	return node
}
