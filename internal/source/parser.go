package source

import (
	"path/filepath"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_json "github.com/tree-sitter/tree-sitter-json/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language identifies the grammar a script block is parsed with
type Language string

const (
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJSON       Language = "json"
)

// ScannedFileTypes are the extensions the project loader and the file
// scanner pick up.
var ScannedFileTypes = []string{
	".js",
	".mjs",
	".cjs",
	".jsx",
	".ts",
	".mts",
	".cts",
	".tsx",
	".vue",
}

// LanguageForPath returns the grammar for a plain script file. Single-file
// components decide per script block and report false here.
func LanguageForPath(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".json":
		return LangJSON, true
	}
	return "", false
}

// IsSingleFileComponent reports whether the path is a framework-native
// single-file component
func IsSingleFileComponent(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".vue")
}

// CreateTreesitterParsers creates one parser per supported language.
// Parsers are not safe for concurrent use.
func CreateTreesitterParsers() map[Language]*tree_sitter.Parser {
	parsers := make(map[Language]*tree_sitter.Parser)

	parsers[LangJavaScript] = tree_sitter.NewParser()
	_ = parsers[LangJavaScript].SetLanguage(tree_sitter.NewLanguage(tree_sitter_javascript.Language()))

	parsers[LangTypeScript] = tree_sitter.NewParser()
	_ = parsers[LangTypeScript].SetLanguage(tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()))

	parsers[LangTSX] = tree_sitter.NewParser()
	_ = parsers[LangTSX].SetLanguage(tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()))

	parsers[LangJSON] = tree_sitter.NewParser()
	_ = parsers[LangJSON].SetLanguage(tree_sitter.NewLanguage(tree_sitter_json.Language()))

	return parsers
}

// CloseTreesitterParsers releases all parsers of a set
func CloseTreesitterParsers(parsers map[Language]*tree_sitter.Parser) {
	for _, parser := range parsers {
		parser.Close()
	}
}

// ParserPool hands out parser sets to concurrent callers
type ParserPool struct {
	pool sync.Pool
}

// NewParserPool creates an empty pool; parser sets are created on demand
func NewParserPool() *ParserPool {
	return &ParserPool{
		pool: sync.Pool{
			New: func() any {
				return CreateTreesitterParsers()
			},
		},
	}
}

// Parse parses content with the grammar of lang
func (p *ParserPool) Parse(lang Language, content []byte) *tree_sitter.Tree {
	parsers := p.pool.Get().(map[Language]*tree_sitter.Parser)
	defer p.pool.Put(parsers)

	parser, ok := parsers[lang]
	if !ok {
		parser = parsers[LangJavaScript]
	}
	return parser.Parse(content, nil)
}
