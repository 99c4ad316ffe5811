// Package report renders resolution results as JSON documents for the CLI
// and the RPC server.
package report

import (
	"fmt"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/shopware/vuemodel/internal/cache"
	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/registry"
)

// Document is a JSON document built up by path
type Document struct {
	data []byte
	err  error
}

// New starts an empty object document
func New() *Document {
	return &Document{data: []byte("{}")}
}

// NewArray starts an empty array document
func NewArray() *Document {
	return &Document{data: []byte("[]")}
}

// Set writes value at an sjson path; the first error sticks
func (d *Document) Set(path string, value any) *Document {
	if d.err != nil {
		return d
	}
	data, err := sjson.SetBytes(d.data, path, value)
	if err != nil {
		d.err = fmt.Errorf("failed to set %s: %w", path, err)
		return d
	}
	d.data = data
	return d
}

// SetRaw writes an already encoded document at path
func (d *Document) SetRaw(path string, raw []byte) *Document {
	if d.err != nil {
		return d
	}
	data, err := sjson.SetRawBytes(d.data, path, raw)
	if err != nil {
		d.err = fmt.Errorf("failed to set %s: %w", path, err)
		return d
	}
	d.data = data
	return d
}

// Append adds a nested document to an array at path
func (d *Document) Append(path string, child *Document) *Document {
	if child.err != nil {
		d.err = child.err
		return d
	}
	return d.SetRaw(appendPath(path), child.data)
}

func appendPath(path string) string {
	if path == "" {
		return "-1"
	}
	return path + ".-1"
}

// Bytes returns the compact document
func (d *Document) Bytes() ([]byte, error) {
	return d.data, d.err
}

// Pretty returns the indented document
func (d *Document) Pretty() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	return pretty.Pretty(d.data), nil
}

// Descriptor renders a component with its merged members and parents
func Descriptor(model *component.Model, desc *component.Descriptor) *Document {
	doc := Header(desc)
	if desc == nil {
		return doc
	}

	doc.SetRaw("members", mustBytes(Members(model.GetMembers(desc))))

	doc.SetRaw("mixins", mustBytes(Mixins(model.GetMixins(desc))))
	return doc
}

// Mixins renders the direct parents of a component, most significant last
func Mixins(mixins []component.Mixin) *Document {
	doc := NewArray()
	for _, mixin := range mixins {
		entry := New().
			Set("reference", mixin.Reference.Text()).
			Set("extends", mixin.Extends).
			Set("resolved", !mixin.Tombstone())
		if !mixin.Tombstone() {
			entry.SetRaw("component", mustBytes(Header(mixin.Descriptor)))
		}
		doc.Append("", entry)
	}
	return doc
}

// Members renders a member surface keyed by section; empty sections are
// left out
func Members(members component.Members) *Document {
	doc := New()
	for _, section := range component.Sections {
		list := *members.List(section)
		if len(list) == 0 {
			continue
		}
		doc.Set(string(section), []any{})
		for _, m := range list {
			doc.Append(string(section), Member(m))
		}
	}
	return doc
}

// Header renders the identity of a component without its members
func Header(desc *component.Descriptor) *Document {
	doc := New()
	if desc == nil {
		return doc.Set("resolved", false)
	}
	doc.Set("name", desc.DisplayName()).
		Set("variant", desc.Variant()).
		Set("mode", desc.Mode.String()).
		Set("path", desc.Node.Path()).
		Set("line", desc.Node.Line()).
		Set("id", desc.ID().String())
	return doc
}

// Member renders one member
func Member(m component.Member) *Document {
	doc := New().Set("name", m.Name)
	if m.Type != nil && !m.Type.IsUnknown() {
		doc.Set("type", m.Type.String())
	}
	if m.Required {
		doc.Set("required", true)
	}
	if m.Default != nil {
		doc.Set("default", m.Default.Text())
	}
	if m.Key != "" {
		doc.Set("key", m.Key)
	}
	if len(m.Params) > 0 {
		doc.Set("params", []any{})
		for _, p := range m.Params {
			param := New().Set("name", p.Name)
			if p.Type != nil && !p.Type.IsUnknown() {
				param.Set("type", p.Type.String())
			}
			if p.Optional {
				param.Set("optional", true)
			}
			doc.Append("params", param)
		}
	}
	if m.Local {
		doc.Set("local", true)
	}
	if m.Exposed {
		doc.Set("exposed", true)
	}
	if m.Path != "" {
		doc.Set("path", m.Path).Set("line", m.Line)
	}
	return doc
}

// Registrations renders the selected entry of every name in an index
func Registrations(ix *registry.Index) *Document {
	doc := NewArray()
	for _, e := range ix.Selected() {
		doc.Append("", Registration(e, len(ix.Candidates(e.Name))))
	}
	return doc
}

// Registration renders one entry; candidates counts the registrations
// competing for its name
func Registration(e registry.Entry, candidates int) *Document {
	s := registry.Summarize(e)
	doc := New().
		Set("name", s.Name).
		Set("key", e.Key()).
		Set("kind", string(s.Kind)).
		Set("path", s.Path).
		Set("line", s.Line).
		Set("global", s.Global).
		Set("indirect", s.Indirect)
	if s.Variant != "" {
		doc.Set("variant", s.Variant)
	}
	if s.TargetPath != "" {
		doc.Set("target.path", s.TargetPath).Set("target.line", s.TargetLine)
	}
	if candidates > 1 {
		doc.Set("candidates", candidates)
	}
	return doc
}

// Summaries renders stored registrations
func Summaries(summaries []registry.Summary) *Document {
	doc := NewArray()
	for _, s := range summaries {
		doc.Set("-1", s)
	}
	return doc
}

// Stats renders cache counters
func Stats(stats []cache.Stats) *Document {
	doc := NewArray()
	for _, s := range stats {
		doc.Set("-1", s)
	}
	return doc
}

func mustBytes(d *Document) []byte {
	b, err := d.Bytes()
	if err != nil {
		return []byte("null")
	}
	return b
}
