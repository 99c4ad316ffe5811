package component

import (
	"fmt"
	"slices"

	"github.com/shopware/vuemodel/internal/source"
	"github.com/shopware/vuemodel/internal/types"
)

// Section is a logical member list of a component
type Section string

const (
	SectionProps      Section = "props"
	SectionData       Section = "data"
	SectionComputed   Section = "computed"
	SectionMethods    Section = "methods"
	SectionEmits      Section = "emits"
	SectionSlots      Section = "slots"
	SectionProvide    Section = "provide"
	SectionInject     Section = "inject"
	SectionComponents Section = "components"
	SectionDirectives Section = "directives"
	SectionFilters    Section = "filters"
)

// Sections lists every section in output order
var Sections = []Section{
	SectionProps,
	SectionData,
	SectionComputed,
	SectionMethods,
	SectionEmits,
	SectionSlots,
	SectionProvide,
	SectionInject,
	SectionComponents,
	SectionDirectives,
	SectionFilters,
}

// Member is a named member of a component section
type Member struct {
	Name string

	// Source is the node declaring the member (a property, a type member,
	// a macro call); nil for members read from a template
	Source *source.Node

	// Value is the node bound to the member: prop options, a method, the
	// target of a local registration
	Value *source.Node

	Type *types.Type

	// Required is set for props without a default that must be passed,
	// and for slots that are not optional
	Required bool

	// Default is the default value of a prop or inject
	Default *source.Node

	// Key is the injection key of provides and injects
	Key string

	// Params is the payload contract of an event
	Params []types.Param

	// Local is set for defineModel({ local: true })
	Local bool

	// Exposed is set for members made public through defineExpose
	Exposed bool

	Path string
	Line int
}

func newMember(name string, src *source.Node) Member {
	return Member{
		Name:   name,
		Source: src,
		Type:   types.UnknownType(),
		Path:   src.Path(),
		Line:   src.Line(),
	}
}

// String renders the member compactly, used by reports and tests
func (m Member) String() string {
	s := m.Name
	if m.Type != nil && !m.Type.IsUnknown() {
		s += ": " + m.Type.String()
	}
	if m.Required {
		s += " (required)"
	}
	return s
}

// Members are the member lists of a component
type Members struct {
	Props      []Member
	Data       []Member
	Computed   []Member
	Methods    []Member
	Emits      []Member
	Slots      []Member
	Provides   []Member
	Injects    []Member
	Components []Member
	Directives []Member
	Filters    []Member
}

// List returns the member list of a section
func (m *Members) List(section Section) *[]Member {
	switch section {
	case SectionProps:
		return &m.Props
	case SectionData:
		return &m.Data
	case SectionComputed:
		return &m.Computed
	case SectionMethods:
		return &m.Methods
	case SectionEmits:
		return &m.Emits
	case SectionSlots:
		return &m.Slots
	case SectionProvide:
		return &m.Provides
	case SectionInject:
		return &m.Injects
	case SectionComponents:
		return &m.Components
	case SectionDirectives:
		return &m.Directives
	case SectionFilters:
		return &m.Filters
	}
	panic(fmt.Sprintf("unknown section %q", section))
}

// Find returns the member of a section with the given name
func (m Members) Find(section Section, name string) (Member, bool) {
	for _, member := range *m.List(section) {
		if member.Name == name {
			return member, true
		}
	}
	return Member{}, false
}

// Names returns the member names of a section in order
func (m Members) Names(section Section) []string {
	list := *m.List(section)
	names := make([]string, 0, len(list))
	for _, member := range list {
		names = append(names, member.Name)
	}
	return names
}

// Add puts a member into a section. A member with the same name is
// replaced in place, so the list keeps the first declaration position.
func (m *Members) Add(section Section, member Member) {
	if member.Name == "" {
		return
	}
	list := m.List(section)
	for i := range *list {
		if (*list)[i].Name == member.Name {
			(*list)[i] = member
			return
		}
	}
	*list = append(*list, member)
}

// Merge overlays other onto m; members of other win
func (m *Members) Merge(other Members) {
	for _, section := range Sections {
		for _, member := range *other.List(section) {
			m.Add(section, member)
		}
	}
}

// Clone returns a copy that can be modified without touching m
func (m Members) Clone() Members {
	var c Members
	for _, section := range Sections {
		*c.List(section) = slices.Clone(*m.List(section))
	}
	return c
}

// Empty reports whether no section has members
func (m Members) Empty() bool {
	for _, section := range Sections {
		if len(*m.List(section)) > 0 {
			return false
		}
	}
	return true
}

// Summary renders every member as "section name: type", in section order
func (m Members) Summary() []string {
	var lines []string
	for _, section := range Sections {
		for _, member := range *m.List(section) {
			lines = append(lines, string(section)+" "+member.String())
		}
	}
	return lines
}
