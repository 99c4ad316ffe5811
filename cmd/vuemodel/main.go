package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shopware/vuemodel/internal/report"
	"github.com/shopware/vuemodel/internal/workspace"
)

var (
	flagRoot    string
	flagCompact bool
)

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vuemodel",
	Short:         "Resolve the declarations and merged members of Vue components",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "project root")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "print compact JSON")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(mixinsCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(storedCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadWorkspace opens the project at --root and parses all of its files
func loadWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	w, err := workspace.Open(flagRoot)
	if err != nil {
		return nil, err
	}
	if err := w.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading %s: %w", w.Config.Root, err)
	}
	return w, nil
}

func printDocument(cmd *cobra.Command, doc *report.Document) error {
	var (
		data []byte
		err  error
	)
	if flagCompact {
		data, err = doc.Bytes()
	} else {
		data, err = doc.Pretty()
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(append(data, '\n'))
	return err
}
