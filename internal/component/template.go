package component

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
	"github.com/shopware/vuemodel/internal/types"
)

// slotTagPattern matches <slot> and <slot name="..."> tags
// Captures the slot name from the name attribute if present
var slotTagPattern = regexp.MustCompile(`<slot(?:\s+name=["']([^"']+)["'])?[^>]*>`)

// templateBlockPattern matches the outermost <template> block of a
// single-file component
var templateBlockPattern = regexp.MustCompile(`(?s)<template(\s[^>]*)?>(.*)</template>`)

// templateSlot is a slot declared in template markup
type templateSlot struct {
	Name string
	Line int
}

// parseTemplateSlots extracts slot names and their 1-based line numbers
// from template content; each name is reported once
func parseTemplateSlots(content string, firstLine int) []templateSlot {
	var slots []templateSlot
	seen := make(map[string]bool)

	for lineNum, line := range strings.Split(content, "\n") {
		for _, match := range slotTagPattern.FindAllStringSubmatch(line, -1) {
			name := "default"
			if len(match) > 1 && match[1] != "" {
				name = match[1]
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			slots = append(slots, templateSlot{Name: name, Line: firstLine + lineNum})
		}
	}
	return slots
}

// templateSlots reads the slots of the template belonging to a component:
// the <template> block of a single-file component, an inline `template`
// string option, or a template file imported as `template`
func (x *extractor) templateSlots(desc *Descriptor) []Member {
	path, content, firstLine := x.templateOf(desc)
	if content == "" {
		return nil
	}

	var members []Member
	for _, slot := range parseTemplateSlots(content, firstLine) {
		members = append(members, Member{
			Name: slot.Name,
			Type: types.UnknownType(),
			Path: path,
			Line: slot.Line,
		})
	}
	return members
}

func (x *extractor) templateOf(desc *Descriptor) (string, string, int) {
	file := desc.Node.File()
	if file == nil {
		return "", "", 0
	}

	if file.IsSFC() {
		loc := templateBlockPattern.FindSubmatchIndex(file.Content)
		if loc == nil {
			return "", "", 0
		}
		start := loc[4]
		line := 1 + strings.Count(string(file.Content[:start]), "\n")
		return file.Path, string(file.Content[start:loc[5]]), line
	}

	value := unwrap(findValue(desc.Initializer, "template"))
	switch {
	case treesitterhelper.IsStringLiteral(value.TS()):
		return value.Path(), treesitterhelper.StringContent(value.TS(), value.Content()), value.Line()
	case value.Is(treesitterhelper.KindIdentifier, treesitterhelper.KindShorthand):
		templatePath := resolveTemplatePath(file.Path, templateImport(value))
		if templatePath == "" {
			return "", "", 0
		}
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", "", 0
		}
		return templatePath, string(content), 1
	}
	return "", "", 0
}

// templateImport returns the module an identifier is default-imported from
func templateImport(ident *source.Node) string {
	program := ident.Script().Root()
	for _, stmt := range program.NamedChildren() {
		if !stmt.Is("import_statement") {
			continue
		}
		for _, local := range importedNames(stmt) {
			if local.Text() == ident.Text() && local.Parent().Is("import_clause") {
				from := stmt.Field("source")
				return treesitterhelper.StringContent(from.TS(), from.Content())
			}
		}
	}
	return ""
}

// resolveTemplatePath resolves the template import path to an absolute file
// path relative to the component definition file
func resolveTemplatePath(definitionPath, templateImport string) string {
	if templateImport == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(definitionPath), templateImport)
}
