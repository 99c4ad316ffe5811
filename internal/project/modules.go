package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

// moduleExtensions are probed, in order, for extensionless specifiers
var moduleExtensions = []string{".ts", ".js", ".vue", ".tsx", ".jsx", ".mjs"}

// importBinding resolves a name bound by an import statement of a program
func (p *Project) importBinding(name string, program *source.Node) (*source.Node, bool) {
	for _, stmt := range program.NamedChildren() {
		if !stmt.Is("import_statement") {
			continue
		}
		specifier := stmt.Field("source")
		if specifier == nil {
			continue
		}
		module := treesitterhelper.StringContent(specifier.TS(), specifier.Content())

		clause := stmt.Child("import_clause")
		for _, binding := range clause.NamedChildren() {
			switch binding.Kind() {
			case "identifier":
				if binding.Text() == name {
					return p.ResolveQualifiedName([]string{module, "default"}, stmt), true
				}
			case "namespace_import":
				if binding.NamedChild(0).Text() == name {
					return p.ResolveQualifiedName([]string{module}, stmt), true
				}
			case "named_imports":
				for _, spec := range binding.NamedChildren() {
					if !spec.Is("import_specifier") {
						continue
					}
					imported := spec.Field("name")
					local := spec.Field("alias")
					if local == nil {
						local = imported
					}
					if local.Text() != name {
						continue
					}
					exported := imported.Text()
					if imported.Is("string") {
						exported = treesitterhelper.StringContent(imported.TS(), imported.Content())
					}
					return p.ResolveQualifiedName([]string{module, exported}, stmt), true
				}
			}
		}
	}
	return nil, false
}

// ResolveQualifiedName resolves [module, export, member...] relative to
// ctx. A bare module gives the module's program node; an export gives its
// declaration; further parts select properties of object literals.
func (p *Project) ResolveQualifiedName(parts []string, ctx *source.Node) *source.Node {
	if len(parts) == 0 || ctx == nil {
		return nil
	}

	path := p.resolveModulePath(parts[0], filepath.Dir(ctx.Path()))
	if path == "" {
		return nil
	}
	file := p.lookupFile(path)
	if file == nil {
		return nil
	}

	if len(parts) == 1 {
		return moduleRoot(file)
	}

	current := p.exportedBinding(file, parts[1], make(map[string]bool))
	for _, member := range parts[2:] {
		current = p.memberOf(current, member)
		if current == nil {
			return nil
		}
	}
	return current
}

// moduleRoot returns the program that carries the module's exports
func moduleRoot(file *source.File) *source.Node {
	if main := file.MainScript(); main != nil {
		return main.Root()
	}
	return file.Root()
}

// exportedBinding finds the declaration a module exports under name
func (p *Project) exportedBinding(file *source.File, name string, visited map[string]bool) *source.Node {
	key := file.Path + "\x00" + name
	if visited[key] {
		return nil
	}
	visited[key] = true

	var program *source.Node
	if main := file.MainScript(); main != nil && !main.Synthetic {
		program = main.Root()
	}

	for _, stmt := range program.NamedChildren() {
		switch {
		case stmt.Is("export_statement"):
			if decl := p.exportFromStatement(file, stmt, name, visited); decl != nil {
				return decl
			}
		case stmt.Is("expression_statement") && name == "default":
			// module.exports = {...}
			assign := stmt.NamedChild(0)
			if assign.Is("assignment_expression") && assign.Field("left").Text() == "module.exports" {
				return assign.Field("right")
			}
		}
	}

	// the default export of a single-file component without an explicit one
	// is the component itself
	if name == "default" && file.IsSFC() {
		return file.Root()
	}
	return nil
}

func (p *Project) exportFromStatement(file *source.File, stmt *source.Node, name string, visited map[string]bool) *source.Node {
	isDefault := stmt.HasChild("default")
	from := stmt.Field("source")

	if isDefault {
		if name != "default" {
			return nil
		}
		if value := stmt.Field("value"); value != nil {
			return value
		}
		return stmt.Field("declaration")
	}

	if decl := stmt.Field("declaration"); decl != nil {
		return declarationBinding(name, decl)
	}

	if clause := stmt.Child("export_clause"); clause != nil {
		for _, spec := range clause.NamedChildren() {
			if !spec.Is("export_specifier") {
				continue
			}
			local := spec.Field("name")
			exported := spec.Field("alias")
			if exported == nil {
				exported = local
			}
			if exportName(exported) != name {
				continue
			}
			if from == nil {
				return p.ResolveLocally(exportName(local), stmt)
			}
			return p.reexport(stmt, from, exportName(local), visited)
		}
		return nil
	}

	if from == nil {
		return nil
	}

	// export * as ns from './x'
	if ns := stmt.Child("namespace_export"); ns != nil {
		if exportName(ns.NamedChild(0)) == name {
			return p.ResolveQualifiedName([]string{treesitterhelper.StringContent(from.TS(), from.Content())}, stmt)
		}
		return nil
	}

	// export * from './x' never re-exports the default
	if stmt.HasChild("*") && name != "default" {
		return p.reexport(stmt, from, name, visited)
	}
	return nil
}

func (p *Project) reexport(stmt, from *source.Node, name string, visited map[string]bool) *source.Node {
	path := p.resolveModulePath(treesitterhelper.StringContent(from.TS(), from.Content()), filepath.Dir(stmt.Path()))
	if path == "" {
		return nil
	}
	target := p.lookupFile(path)
	if target == nil {
		return nil
	}
	return p.exportedBinding(target, name, visited)
}

func exportName(node *source.Node) string {
	if node.Is("string") {
		return treesitterhelper.StringContent(node.TS(), node.Content())
	}
	return node.Text()
}

// memberOf selects a property of a resolved binding
func (p *Project) memberOf(decl *source.Node, member string) *source.Node {
	if decl.Is("program") {
		return p.exportedBinding(decl.File(), member, make(map[string]bool))
	}

	value := treesitterhelper.UnwrapExpression(decl.DeclaredValue().TS())
	node := decl.Wrap(value)
	if node.Is("identifier") {
		node = p.ResolveLocally(node.Text(), node).DeclaredValue()
		node = node.Wrap(treesitterhelper.UnwrapExpression(node.TS()))
	}
	if !node.Is("object") {
		return nil
	}
	for _, child := range node.NamedChildren() {
		switch child.Kind() {
		case "pair":
			if treesitterhelper.PropertyKeyName(child.Field("key").TS(), child.Content()) == member {
				return child.Field("value")
			}
		case "shorthand_property_identifier":
			if child.Text() == member {
				return p.ResolveLocally(member, child)
			}
		case "method_definition":
			if child.Field("name").Text() == member {
				return child
			}
		}
	}
	return nil
}

// resolveModulePath maps an import specifier to a file path
func (p *Project) resolveModulePath(specifier, fromDir string) string {
	if specifier == "" {
		return ""
	}

	var base string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		base = filepath.Join(fromDir, specifier)
	case filepath.IsAbs(specifier):
		base = specifier
	default:
		if aliased, ok := p.applyAlias(specifier); ok {
			base = aliased
		} else {
			return p.resolvePackage(specifier, fromDir)
		}
	}

	return p.probe(base)
}

// applyAlias rewrites the longest matching alias prefix
func (p *Project) applyAlias(specifier string) (string, bool) {
	prefixes := make([]string, 0, len(p.cfg.Aliases))
	for prefix := range p.cfg.Aliases {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, prefix := range prefixes {
		if strings.HasPrefix(specifier, prefix) {
			dir := p.cfg.Aliases[prefix]
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(p.cfg.Root, dir)
			}
			return filepath.Join(dir, strings.TrimPrefix(specifier, prefix)), true
		}
	}
	return "", false
}

// probe tries the path itself, then known extensions, then index files
func (p *Project) probe(base string) string {
	if filepath.Ext(base) != "" && p.exists(base) {
		return base
	}
	for _, ext := range moduleExtensions {
		if p.exists(base + ext) {
			return base + ext
		}
	}
	for _, ext := range moduleExtensions {
		candidate := filepath.Join(base, "index"+ext)
		if p.exists(candidate) {
			return candidate
		}
	}
	return ""
}

// resolvePackage looks the package up in node_modules directories from
// fromDir upward, honoring the `module` and `main` manifest entries
func (p *Project) resolvePackage(specifier, fromDir string) string {
	pkg, subpath := splitPackageSpecifier(specifier)

	for dir := fromDir; ; dir = filepath.Dir(dir) {
		pkgDir := filepath.Join(dir, "node_modules", pkg)
		if info, err := os.Stat(pkgDir); err == nil && info.IsDir() {
			if subpath != "" {
				return p.probe(filepath.Join(pkgDir, subpath))
			}
			if entry := p.packageEntry(pkgDir); entry != "" {
				if resolved := p.probe(filepath.Join(pkgDir, entry)); resolved != "" {
					return resolved
				}
			}
			return p.probe(filepath.Join(pkgDir, "index"))
		}
		if filepath.Dir(dir) == dir {
			return ""
		}
	}
}

func splitPackageSpecifier(specifier string) (string, string) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		n = 2
	}
	if len(parts) <= n {
		return specifier, ""
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/")
}

// packageEntry reads the entry file of a package manifest
func (p *Project) packageEntry(pkgDir string) string {
	content, err := os.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return ""
	}

	tree := p.pool.Parse(source.LangJSON, content)
	if tree == nil {
		return ""
	}
	defer tree.Close()

	fields := ManifestFields(tree.RootNode(), content)
	if entry := fields["module"]; entry != "" {
		return entry
	}
	return fields["main"]
}

// ManifestFields returns the top-level string fields of a JSON document
func ManifestFields(root *tree_sitter.Node, content []byte) map[string]string {
	fields := make(map[string]string)
	if root.Kind() == "document" && root.NamedChildCount() > 0 {
		root = root.NamedChild(0)
	}
	if root.Kind() != "object" {
		return fields
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		pair := root.NamedChild(i)
		if pair.Kind() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil || value.Kind() != "string" {
			continue
		}
		fields[jsonString(key, content)] = jsonString(value, content)
	}
	return fields
}

func jsonString(node *tree_sitter.Node, content []byte) string {
	if node.NamedChildCount() > 0 && node.NamedChild(0).Kind() == "string_content" {
		return node.NamedChild(0).Utf8Text(content)
	}
	return treesitterhelper.Unquote(node.Utf8Text(content))
}
