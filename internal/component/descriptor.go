package component

import (
	"path/filepath"
	"strings"

	"github.com/shopware/vuemodel/internal/source"
)

// Mode is the execution mode a component is compiled for
type Mode int

const (
	ModeClassic Mode = iota
	ModeVapor
)

func (m Mode) String() string {
	if m == ModeVapor {
		return "vapor"
	}
	return "classic"
}

// Declaration is the authoring variant of a component. The set of variants
// is closed: OptionsLiteral, ClassDecorator, ScriptSetup and WholeFile.
type Declaration interface {
	// Node is the node defining the component's behavior
	Node() *source.Node
	variant() string
}

// OptionsLiteral is an options object, possibly wrapped in a defining call
// such as defineComponent({...})
type OptionsLiteral struct {
	Literal *source.Node
	// Call is the defining call wrapping the literal, if any
	Call *source.Node
}

// ClassDecorator is a class carrying a @Component / @Options decorator
type ClassDecorator struct {
	Class     *source.Node
	Decorator *source.Node
}

// ScriptSetup is the <script setup> block of a single-file component
type ScriptSetup struct {
	Program *source.Node
	// Options is the default export literal of the file's plain <script>
	Options *source.Node
	// DefineOptions is the argument of a defineOptions() call
	DefineOptions *source.Node
}

// WholeFile is a single-file component without any explicit initializer
type WholeFile struct {
	File    *source.File
	Program *source.Node
}

func (d OptionsLiteral) Node() *source.Node {
	if d.Call != nil {
		return d.Call
	}
	return d.Literal
}

func (d ClassDecorator) Node() *source.Node { return d.Class }
func (d ScriptSetup) Node() *source.Node    { return d.Program }
func (d WholeFile) Node() *source.Node      { return d.Program }

func (OptionsLiteral) variant() string { return "options" }
func (ClassDecorator) variant() string { return "class" }
func (ScriptSetup) variant() string    { return "script-setup" }
func (WholeFile) variant() string      { return "file" }

// Variant names the authoring variant of a declaration
func Variant(d Declaration) string {
	if d == nil {
		return ""
	}
	return d.variant()
}

// Descriptor is the unit the resolver works on. Descriptors are cheap
// values; they are recreated from their declaration node on every query.
type Descriptor struct {
	Declaration Declaration

	// Node is the declaration node; its identity keys every cached result
	Node *source.Node

	// Initializer is the options literal supplying member sections, if any
	Initializer *source.Node

	// NameSource is the literal or identifier the name was read from
	NameSource *source.Node

	// Name is the constant name of the component, if known
	Name string

	Mode Mode
}

// ID is the identity of the declaration node
func (d *Descriptor) ID() source.NodeID {
	if d == nil {
		return source.NodeID{}
	}
	return d.Node.ID()
}

// Valid reports whether the declaration node still belongs to the current
// version of its file
func (d *Descriptor) Valid() bool {
	return d != nil && d.Node.Valid()
}

// Variant names the authoring variant
func (d *Descriptor) Variant() string {
	if d == nil {
		return ""
	}
	return Variant(d.Declaration)
}

// DisplayName is the registered name, or the file name of a single-file
// component
func (d *Descriptor) DisplayName() string {
	if d == nil {
		return ""
	}
	if d.Name != "" {
		return d.Name
	}
	if file := d.Node.File(); file != nil && file.IsSFC() {
		return strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	}
	return ""
}

// Pointer returns a re-resolvable reference to the descriptor
func (d *Descriptor) Pointer(m *Model) source.Pointer[*Descriptor] {
	return source.NewPointer(d.Node, d, func(node *source.Node) (*Descriptor, bool) {
		desc := m.ResolveComponent(node)
		return desc, desc != nil
	})
}
