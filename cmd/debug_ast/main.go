package main

import (
	"fmt"
	"os"

	"github.com/shopware/vuemodel/internal/source"
	treesitterhelper "github.com/shopware/vuemodel/internal/tree_sitter_helper"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/debug_ast/main.go <script_or_vue_file>")
		os.Exit(1)
	}

	filePath := os.Args[1]
	content, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	pool := source.NewParserPool()
	file, err := source.ParseFile(pool, filePath, content, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing AST for file: %s\n\n", filePath)
	for _, script := range file.Scripts {
		if script.Tree == nil {
			continue
		}
		fmt.Printf("script #%d (%s, setup=%t, from line %d)\n", script.Index, script.Lang, script.Setup, script.StartLine+1)
		treesitterhelper.PrintAllNodes(os.Stdout, script.Tree.RootNode(), script.Content, "  ")
		fmt.Println()
	}
}
