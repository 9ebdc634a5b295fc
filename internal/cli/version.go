package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd.OutOrStdout(), JSONOutput(), Verbose())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, asJSON, detailed bool) error {
	if asJSON {
		return printJSON(w, map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		})
	}

	fmt.Fprintf(w, "flipbook %s\n", Version)
	if detailed {
		t := NewTableWriter(w)
		t.Row("  commit:", Commit)
		t.Row("  built:", BuildDate)
		t.Row("  go version:", runtime.Version())
		t.Row("  platform:", runtime.GOOS+"/"+runtime.GOARCH)
		t.Flush()
	}
	return nil
}
