package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
)

func newVersionCmd() *cobra.Command {
	var deps bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bondcalc %s %s/%s\n\nCommit: %s\nBuilt with: %s\n",
				version, runtime.GOOS, runtime.GOARCH, commit, runtime.Version())
			if deps {
				fmt.Fprintln(cmd.OutOrStdout(), "\nDependencies:")
				for _, d := range dependencyList() {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&deps, "deps", false, "print dependencies")
	return cmd
}

// dependencyList returns module="version" lines sorted by path.
func dependencyList() []string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(bi.Deps))
	for _, dep := range bi.Deps {
		out = append(out, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
	}
	sort.Strings(out)
	return out
}
