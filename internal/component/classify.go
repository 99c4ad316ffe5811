package component

import (
	"slices"

	"github.com/shopware/vuemodel/internal/project"
	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

var componentDecorators = []string{"Component", "Options"}

// classifier matches a node against the authoring variants. It is
// stateless apart from its configuration and never caches.
type classifier struct {
	host          Host
	definingCalls []string
}

func newClassifier(host Host, extraDefiningCalls []string) *classifier {
	return &classifier{
		host:          host,
		definingCalls: slices.Concat(project.DefiningCalls, extraDefiningCalls),
	}
}

// classify turns a node into a descriptor, trying in order: options
// literal, defining call, decorated class, script setup and whole file.
// References are followed to the value they are bound to.
func (c *classifier) classify(node *source.Node) *Descriptor {
	return c.classifyAt(node, 0)
}

func (c *classifier) classifyAt(node *source.Node, depth int) *Descriptor {
	if depth > maxIndirection {
		return nil
	}
	for range maxIndirection {
		node = unwrap(node)
		switch node.Kind() {
		case "export_statement":
			if value := node.Field("value"); value != nil {
				node = value
			} else {
				node = node.Field("declaration")
			}
		case "variable_declarator", "public_field_definition", "field_definition", "pair":
			node = node.Field("value")
		case treesitterhelper.KindIdentifier, treesitterhelper.KindShorthand, treesitterhelper.KindMember:
			resolved := resolveValue(c.host, node)
			if resolved == nil || resolved.Same(node) {
				return nil
			}
			node = resolved
		case treesitterhelper.KindObject:
			return c.literal(node)
		case treesitterhelper.KindCall:
			return c.call(node)
		case "class_declaration", "class", "abstract_class_declaration":
			return c.class(node)
		case "decorator":
			return c.decoratedBy(node)
		case treesitterhelper.KindProgram:
			return c.program(node, depth)
		default:
			return nil
		}
	}
	return nil
}

// literal classifies an options object. A literal passed to a defining
// call, or exported next to a <script setup>, belongs to that declaration.
func (c *classifier) literal(obj *source.Node) *Descriptor {
	if call := c.enclosingDefiningCall(obj); call != nil {
		return c.call(call)
	}
	if setup := c.setupSibling(obj); setup != nil {
		return c.program(setup, 0)
	}

	desc := &Descriptor{
		Declaration: OptionsLiteral{Literal: obj},
		Node:        obj,
		Initializer: obj,
		Mode:        scriptMode(obj),
	}
	c.readName(desc, obj)
	return desc
}

// call classifies defineComponent({...}) and the other defining calls,
// plus `Base.extend({...})`
func (c *classifier) call(call *source.Node) *Descriptor {
	if !c.isDefiningCall(call) {
		return nil
	}

	var literal *source.Node
	for _, arg := range treesitterhelper.Arguments(call.TS()) {
		if value := resolveValue(c.host, call.Wrap(arg)); value.Is(treesitterhelper.KindObject) {
			literal = value
		}
	}
	if literal == nil {
		return nil
	}

	mode := scriptMode(call)
	if calleeName(call) == "defineVaporComponent" {
		mode = ModeVapor
	}
	desc := &Descriptor{
		Declaration: OptionsLiteral{Literal: literal, Call: call},
		Node:        call,
		Initializer: literal,
		Mode:        mode,
	}
	c.readName(desc, literal)
	return desc
}

func (c *classifier) isDefiningCall(call *source.Node) bool {
	callee := call.Field("function")
	if callee == nil {
		return false
	}
	if slices.Contains(c.definingCalls, callee.Text()) {
		return true
	}
	// Base.extend({...}) with a single options argument
	if callee.Is(treesitterhelper.KindMember) && callee.Field("property").Text() == "extend" {
		args := treesitterhelper.Arguments(call.TS())
		return len(args) == 1 && !treesitterhelper.IsStringLiteral(args[0])
	}
	return false
}

func (c *classifier) enclosingDefiningCall(obj *source.Node) *source.Node {
	args := obj.Parent()
	if !args.Is("arguments") {
		return nil
	}
	call := args.Parent()
	if call.Is(treesitterhelper.KindCall) && c.isDefiningCall(call) {
		return call
	}
	return nil
}

// setupSibling returns the setup program when obj is the default export of
// the plain <script> of a single-file component that also has a setup block
func (c *classifier) setupSibling(obj *source.Node) *source.Node {
	file := obj.File()
	if file == nil || !file.IsSFC() || obj.Script().Setup {
		return nil
	}
	setup := file.SetupScript()
	if setup == nil {
		return nil
	}
	stmt := obj.Parent()
	if stmt.Is("export_statement") && stmt.HasChild("default") && stmt.Parent().Is(treesitterhelper.KindProgram) {
		return setup.Root()
	}
	return nil
}

// class classifies a class carrying a component decorator, either on the
// class itself or on its export statement
func (c *classifier) class(cls *source.Node) *Descriptor {
	decorator := componentDecorator(cls)
	if decorator == nil {
		if parent := cls.Parent(); parent.Is("export_statement") {
			decorator = componentDecorator(parent)
		}
	}
	if decorator == nil {
		return nil
	}

	desc := &Descriptor{
		Declaration: ClassDecorator{Class: cls, Decorator: decorator},
		Node:        cls,
		Mode:        scriptMode(cls),
	}
	if call := decorator.NamedChild(0); call.Is(treesitterhelper.KindCall) {
		for _, arg := range treesitterhelper.Arguments(call.TS()) {
			if value := resolveValue(c.host, call.Wrap(arg)); value.Is(treesitterhelper.KindObject) {
				desc.Initializer = value
				break
			}
		}
	}
	c.readName(desc, desc.Initializer)
	if desc.Name == "" {
		if name := cls.Field("name"); name != nil {
			desc.NameSource = name
			desc.Name = name.Text()
		}
	}
	return desc
}

// decoratedBy classifies the class a component decorator is attached to
func (c *classifier) decoratedBy(decorator *source.Node) *Descriptor {
	parent := decorator.Parent()
	if parent.Is("export_statement") {
		parent = parent.Field("declaration")
	}
	if !parent.Is("class_declaration", "class", "abstract_class_declaration") {
		return nil
	}
	return c.class(parent)
}

func componentDecorator(node *source.Node) *source.Node {
	for i := uint(0); i < node.TS().ChildCount(); i++ {
		child := node.TS().Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		if slices.Contains(componentDecorators, project.DecoratorName(child, node.Content())) {
			return node.Wrap(child)
		}
	}
	return nil
}

// program classifies the program of a script block. Only single-file
// components are components as a whole.
func (c *classifier) program(program *source.Node, depth int) *Descriptor {
	file := program.File()
	if file == nil || !file.IsSFC() {
		return nil
	}
	script := program.Script()

	if !script.Setup {
		if setup := file.SetupScript(); setup != nil {
			return c.program(setup.Root(), depth)
		}
		if value := defaultExport(program); value != nil {
			if desc := c.classifyAt(value, depth+1); desc != nil {
				return desc
			}
		}
		return &Descriptor{
			Declaration: WholeFile{File: file, Program: program},
			Node:        program,
			Mode:        fileMode(file),
		}
	}

	decl := ScriptSetup{Program: program, DefineOptions: defineOptionsArgument(c.host, program)}
	if main := file.MainScript(); main != nil && !main.Synthetic {
		if value := resolveValue(c.host, defaultExport(main.Root())); value.Is(treesitterhelper.KindObject) {
			decl.Options = value
		}
	}

	desc := &Descriptor{
		Declaration: decl,
		Node:        program,
		Initializer: decl.Options,
		Mode:        fileMode(file),
	}
	if desc.Initializer == nil {
		desc.Initializer = decl.DefineOptions
	}
	c.readName(desc, decl.DefineOptions)
	if desc.Name == "" {
		c.readName(desc, decl.Options)
	}
	return desc
}

var defineOptionsPattern = treesitterhelper.JSCallToPattern("defineOptions")

func defineOptionsArgument(host Host, program *source.Node) *source.Node {
	call := treesitterhelper.FindFirst(program.TS(), defineOptionsPattern, program.Content())
	if call == nil {
		return nil
	}
	args := treesitterhelper.Arguments(call)
	if len(args) == 0 {
		return nil
	}
	if value := resolveValue(host, program.Wrap(args[0])); value.Is(treesitterhelper.KindObject) {
		return value
	}
	return nil
}

// defaultExport returns the value of the `export default` statement of a
// program
func defaultExport(program *source.Node) *source.Node {
	for _, stmt := range program.NamedChildren() {
		if !stmt.Is("export_statement") || !stmt.HasChild("default") {
			continue
		}
		if value := stmt.Field("value"); value != nil {
			return value
		}
		return stmt.Field("declaration")
	}
	return nil
}

// readName takes the component name from the `name` option
func (c *classifier) readName(desc *Descriptor, initializer *source.Node) {
	p, ok := findProperty(initializer, "name")
	if !ok {
		return
	}
	value := resolveValue(c.host, p.Value)
	if treesitterhelper.IsStringLiteral(value.TS()) {
		desc.NameSource = value
		desc.Name = treesitterhelper.StringContent(value.TS(), value.Content())
	}
}

func calleeName(call *source.Node) string {
	callee := call.Field("function")
	if callee.Is(treesitterhelper.KindMember) {
		return callee.Field("property").Text()
	}
	return callee.Text()
}

func scriptMode(node *source.Node) Mode {
	if script := node.Script(); script != nil && script.Vapor {
		return ModeVapor
	}
	return ModeClassic
}

func fileMode(file *source.File) Mode {
	for _, script := range file.Scripts {
		if script.Vapor {
			return ModeVapor
		}
	}
	return ModeClassic
}
