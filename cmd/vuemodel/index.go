package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopware/vuemodel/internal/registry"
	"github.com/shopware/vuemodel/internal/report"
	"github.com/shopware/vuemodel/internal/rpc"
	"github.com/shopware/vuemodel/internal/workspace"
)

var (
	flagForce bool
	flagKind  string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the project and store the registrations of every file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openIndexed(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		all, err := w.Store.All()
		if err != nil {
			return err
		}
		log.Printf("Stored %d registrations from %d files", len(all), len(w.Project.Paths()))
		return nil
	},
}

var storedCmd = &cobra.Command{
	Use:   "stored",
	Short: "Print registrations from the last index run without parsing the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := workspace.Open(flagRoot)
		if err != nil {
			return err
		}
		if err := w.OpenIndex(); err != nil {
			return err
		}
		defer w.Close()

		var summaries []registry.Summary
		switch {
		case flagName != "":
			kind, err := parseKind(flagKind)
			if err != nil {
				return err
			}
			summaries, err = w.Store.Lookup(kind, flagName)
			if err != nil {
				return err
			}
		default:
			summaries, err = w.Store.All()
			if err != nil {
				return err
			}
		}
		return printDocument(cmd, report.Summaries(summaries))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Index the project and keep the index current until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openIndexed(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		w.Scanner.SetOnUpdate(func() {
			w.Model.Prune()
			w.Registry.Prune()
			log.Printf("Index updated, %d files loaded", len(w.Project.Paths()))
		})
		if err := w.Scanner.StartWatcher(); err != nil {
			return err
		}
		log.Printf("Watching %s", w.Config.Root)

		<-cmd.Context().Done()
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer JSON-RPC requests on stdin and stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := workspace.Open(flagRoot)
		if err != nil {
			return err
		}
		if err := w.OpenIndex(); err != nil {
			return err
		}
		defer w.Close()

		if err := w.Scanner.StartWatcher(); err != nil {
			log.Printf("Warning: file watcher not started: %v", err)
		}
		server := rpc.NewServer(w.Project, w.Model, w.Registry, w.Scanner)
		return server.Start(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "forget file states and index every file again")
	watchCmd.Flags().BoolVar(&flagForce, "force", false, "forget file states before the first scan")

	storedCmd.Flags().StringVar(&flagKind, "kind", "components", "registration kind, with --name")
	storedCmd.Flags().StringVar(&flagName, "name", "", "only registrations of this name")
}

// openIndexed opens the workspace with its persistent index and runs a scan
func openIndexed(cmd *cobra.Command) (*workspace.Workspace, error) {
	w, err := workspace.Open(flagRoot)
	if err != nil {
		return nil, err
	}
	if err := w.OpenIndex(); err != nil {
		return nil, err
	}

	if flagForce {
		if err := w.Scanner.ClearStates(); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	start := time.Now()
	if err := w.Scanner.IndexAll(cmd.Context()); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("indexing %s: %w", w.Config.Root, err)
	}
	log.Printf("Indexed %s in %s", w.Config.Root, time.Since(start).Round(time.Millisecond))
	return w, nil
}
