package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shopware/vuemodel/internal/component"
	"github.com/shopware/vuemodel/internal/registry"
	"github.com/shopware/vuemodel/internal/report"
	"github.com/shopware/vuemodel/internal/source"
	"github.com/shopware/vuemodel/internal/workspace"
)

var (
	flagScoped bool
	flagFile   string
	flagName   string
	flagLine   int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> [line]",
	Short: "Print the components declared in a file, or the one enclosing a line",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorkspace(cmd.Context())
		if err != nil {
			return err
		}
		file, err := lookupFile(w, args[0])
		if err != nil {
			return err
		}

		if len(args) == 2 {
			line, err := strconv.Atoi(args[1])
			if err != nil || line < 1 {
				return fmt.Errorf("invalid line %q", args[1])
			}
			desc := w.Model.ComponentAt(file.NodeAtLine(line))
			return printDocument(cmd, report.Descriptor(w.Model, desc))
		}

		doc := report.NewArray()
		for _, desc := range w.Model.Definitions(source.FilesScope(file.Path)) {
			doc.Append("", report.Descriptor(w.Model, desc))
		}
		return printDocument(cmd, doc)
	},
}

var membersCmd = &cobra.Command{
	Use:   "members <file>",
	Short: "Print the merged members of a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, desc, err := target(cmd, args[0])
		if err != nil || desc == nil {
			return err
		}

		var members component.Members
		if flagScoped {
			members = w.Model.GetMembersInScope(desc, source.ProjectScope())
		} else {
			members = w.Model.GetMembers(desc)
		}
		return printDocument(cmd, report.Members(members))
	},
}

var mixinsCmd = &cobra.Command{
	Use:   "mixins <file>",
	Short: "Print the direct parents of a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, desc, err := target(cmd, args[0])
		if err != nil || desc == nil {
			return err
		}
		return printDocument(cmd, report.Mixins(w.Model.GetMixins(desc)))
	},
}

var registryCmd = &cobra.Command{
	Use:       "registry <components|directives|filters|mixins>",
	Short:     "Print the registrations of the project or of one file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"components", "directives", "filters", "mixins"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		w, err := loadWorkspace(cmd.Context())
		if err != nil {
			return err
		}

		scope := source.ProjectScope()
		var ctx *source.Node
		if flagFile != "" {
			file, err := lookupFile(w, flagFile)
			if err != nil {
				return err
			}
			scope = source.FilesScope(file.Path)
			ctx = file.Root()
			if flagLine > 0 {
				if node := file.NodeAtLine(flagLine); node != nil {
					ctx = node
				}
			}
		}

		if flagName != "" {
			e, ok := w.Registry.Resolve(kind, flagName, ctx)
			if !ok {
				return fmt.Errorf("no %s registered as %q", kind, flagName)
			}
			return printDocument(cmd, report.Registration(e, 1))
		}
		return printDocument(cmd, report.Registrations(w.Registry.Index(kind, scope)))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{membersCmd, mixinsCmd} {
		cmd.Flags().IntVar(&flagLine, "line", 0, "1-based line inside the component (default: first component of the file)")
	}
	membersCmd.Flags().BoolVar(&flagScoped, "scoped", false, "merge the global mixins of the project")

	registryCmd.Flags().StringVar(&flagFile, "file", "", "only registrations made in this file")
	registryCmd.Flags().StringVar(&flagName, "name", "", "resolve a single name")
	registryCmd.Flags().IntVar(&flagLine, "line", 0, "1-based line the name is used at, with --file")
}

func parseKind(arg string) (registry.Kind, error) {
	switch arg {
	case "components", "component":
		return registry.KindComponent, nil
	case "directives", "directive":
		return registry.KindDirective, nil
	case "filters", "filter":
		return registry.KindFilter, nil
	case "mixins", "mixin":
		return registry.KindMixin, nil
	}
	return "", fmt.Errorf("unknown registration kind %q", arg)
}

func lookupFile(w *workspace.Workspace, path string) (*source.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving file path %q: %w", path, err)
	}
	file := w.Project.File(abs)
	if file == nil {
		return nil, fmt.Errorf("file not part of the project: %s", abs)
	}
	return file, nil
}

// target loads the workspace and finds the component at --line, or the
// first one declared in the file. A missing component is reported on
// stdout as an unresolved document.
func target(cmd *cobra.Command, path string) (*workspace.Workspace, *component.Descriptor, error) {
	w, err := loadWorkspace(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	file, err := lookupFile(w, path)
	if err != nil {
		return nil, nil, err
	}

	var desc *component.Descriptor
	if flagLine > 0 {
		desc = w.Model.ComponentAt(file.NodeAtLine(flagLine))
	} else if defs := w.Model.Definitions(source.FilesScope(file.Path)); len(defs) > 0 {
		desc = defs[0]
	}
	if desc == nil {
		return w, nil, printDocument(cmd, report.Header(nil))
	}
	return w, desc, nil
}
