package source

import (
	"bytes"
	"fmt"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// scriptBlockPattern matches top-level <script ...>...</script> blocks of a
// single-file component. Group 1 holds the attributes, group 2 the content.
var scriptBlockPattern = regexp.MustCompile(`(?is)<script\b([^>]*)>(.*?)</script\s*>`)

// scriptAttrPattern matches name, name="value", name='value' and name=value
var scriptAttrPattern = regexp.MustCompile(`([A-Za-z_:@][-A-Za-z0-9_:.]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)

// Script is one parsed script block. Plain script files have exactly one
// block; single-file components have one per <script> tag.
type Script struct {
	file *File

	// Index is the position of the block within its file
	Index int

	// Lang is the grammar the block was parsed with
	Lang Language

	// Setup marks a <script setup> block
	Setup bool

	// Vapor marks a <script setup vapor> block
	Vapor bool

	// Attrs are the raw attributes of the script tag
	Attrs map[string]string

	// Synthetic marks the empty block created for a component without scripts
	Synthetic bool

	// Offset is the byte offset of Content within the file
	Offset uint

	// StartLine is the 0-based line of the first content byte within the file
	StartLine int

	Content []byte
	Tree    *tree_sitter.Tree
}

// File returns the file the block belongs to
func (s *Script) File() *File {
	return s.file
}

// Root returns the program node of the block
func (s *Script) Root() *Node {
	if s == nil || s.Tree == nil {
		return nil
	}
	return Wrap(s, s.Tree.RootNode())
}

// File is a parsed source file. A File is immutable; edits produce a new
// File and invalidate the old one.
type File struct {
	Path    string
	Content []byte
	Scripts []*Script

	// Stamp is the project modification stamp the file was parsed at
	Stamp int64

	invalid atomic.Bool
}

// ParseFile parses a script file or a single-file component. Trees are freed
// once the File and every Node pointing into it are unreachable.
func ParseFile(pool *ParserPool, path string, content []byte, stamp int64) (*File, error) {
	file := &File{
		Path:    path,
		Content: content,
		Stamp:   stamp,
	}

	if IsSingleFileComponent(path) {
		file.Scripts = splitSingleFileComponent(file, content)
	} else {
		lang, ok := LanguageForPath(path)
		if !ok {
			return nil, fmt.Errorf("unsupported file type: %s", path)
		}
		file.Scripts = []*Script{{
			file:    file,
			Lang:    lang,
			Content: content,
		}}
	}

	for _, script := range file.Scripts {
		tree := pool.Parse(script.Lang, script.Content)
		if tree == nil {
			return nil, fmt.Errorf("failed to parse %s (block %d)", path, script.Index)
		}
		script.Tree = tree
		runtime.AddCleanup(script, func(t *tree_sitter.Tree) { t.Close() }, tree)
	}

	return file, nil
}

// splitSingleFileComponent extracts the script blocks of a .vue file. A
// component without any script gets one empty synthetic block so the file
// still has a root node.
func splitSingleFileComponent(file *File, content []byte) []*Script {
	var scripts []*Script

	for _, match := range scriptBlockPattern.FindAllSubmatchIndex(content, -1) {
		attrs := parseScriptAttrs(string(content[match[2]:match[3]]))
		body := content[match[4]:match[5]]

		_, setup := attrs["setup"]
		_, vapor := attrs["vapor"]
		scripts = append(scripts, &Script{
			file:      file,
			Index:     len(scripts),
			Lang:      scriptLanguage(attrs["lang"]),
			Setup:     setup,
			Vapor:     vapor,
			Attrs:     attrs,
			Offset:    uint(match[4]),
			StartLine: bytes.Count(content[:match[4]], []byte("\n")),
			Content:   body,
		})
	}

	if len(scripts) == 0 {
		scripts = append(scripts, &Script{
			file:      file,
			Lang:      LangJavaScript,
			Synthetic: true,
			Content:   []byte{},
		})
	}

	return scripts
}

func parseScriptAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range scriptAttrPattern.FindAllStringSubmatch(raw, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		if value == "" {
			value = m[4]
		}
		attrs[strings.ToLower(m[1])] = value
	}
	return attrs
}

func scriptLanguage(lang string) Language {
	switch strings.ToLower(lang) {
	case "ts":
		return LangTypeScript
	case "tsx":
		return LangTSX
	default:
		return LangJavaScript
	}
}

// IsSFC reports whether the file is a framework-native single-file component
func (f *File) IsSFC() bool {
	return IsSingleFileComponent(f.Path)
}

// Valid reports whether the file is still the current version of its path
func (f *File) Valid() bool {
	return f != nil && !f.invalid.Load()
}

// Invalidate marks the file, and every node pointing into it, as stale
func (f *File) Invalidate() {
	f.invalid.Store(true)
}

// SetupScript returns the <script setup> block, if any
func (f *File) SetupScript() *Script {
	for _, s := range f.Scripts {
		if s.Setup {
			return s
		}
	}
	return nil
}

// MainScript returns the first block that is not a setup block
func (f *File) MainScript() *Script {
	for _, s := range f.Scripts {
		if !s.Setup {
			return s
		}
	}
	return nil
}

// Root returns the node standing for the whole file: the setup block's
// program if there is one, else the first block's program.
func (f *File) Root() *Node {
	if setup := f.SetupScript(); setup != nil {
		return setup.Root()
	}
	if len(f.Scripts) == 0 {
		return nil
	}
	return f.Scripts[0].Root()
}

// NodeByID finds the node with the given identity in this file
func (f *File) NodeByID(id NodeID) *Node {
	if id.Path != f.Path || id.Block < 0 || id.Block >= len(f.Scripts) {
		return nil
	}
	script := f.Scripts[id.Block]
	root := script.Tree.RootNode()
	ts := root.NamedDescendantForByteRange(id.Start, id.End)
	// walk up until the range and kind match; descendants can share a range
	for ts != nil {
		if ts.StartByte() == id.Start && ts.EndByte() == id.End && ts.Kind() == id.Kind {
			return Wrap(script, ts)
		}
		if ts.StartByte() < id.Start || ts.EndByte() > id.End {
			break
		}
		ts = ts.Parent()
	}
	return nil
}

// NodeAtOffset returns the smallest named node covering a byte offset of
// the file content
func (f *File) NodeAtOffset(offset uint) *Node {
	for _, script := range f.Scripts {
		end := script.Offset + uint(len(script.Content))
		if offset < script.Offset || offset > end {
			continue
		}
		local := offset - script.Offset
		ts := script.Tree.RootNode().NamedDescendantForByteRange(local, local)
		return Wrap(script, ts)
	}
	return nil
}

// NodeAtLine returns the outermost named node starting on a 1-based line
func (f *File) NodeAtLine(line int) *Node {
	for _, script := range f.Scripts {
		row := line - 1 - script.StartLine
		if row < 0 {
			continue
		}
		var found *tree_sitter.Node
		var visit func(n *tree_sitter.Node)
		visit = func(n *tree_sitter.Node) {
			if found != nil {
				return
			}
			if n.Kind() != "program" && int(n.StartPosition().Row) == row {
				found = n
				return
			}
			for i := uint(0); i < n.NamedChildCount(); i++ {
				child := n.NamedChild(i)
				if int(child.StartPosition().Row) <= row && int(child.EndPosition().Row) >= row {
					visit(child)
				}
			}
		}
		visit(script.Tree.RootNode())
		if found != nil {
			return Wrap(script, found)
		}
	}
	return nil
}
