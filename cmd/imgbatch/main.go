// Command imgbatch loads images into a batch, applies filters, and
// writes the results back out. It doubles as a diagnostic tool for
// inspecting batch loads and snapshot files.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gogpu/imgbatch"
)

// Build-time variables (injected via -ldflags). version defaults to the
// library version for plain `go build` binaries.
var (
	version   = imgbatch.Version
	commit    = "unknown" // Git commit hash
	date      = "unknown" // Build date
	goVersion = runtime.Version()
	platform  = runtime.GOOS + "/" + runtime.GOARCH

	workers   int
	queueSize int
	verbose   bool
)

func getVersionInfo() string {
	commitHash := commit
	if len(commit) > 8 {
		commitHash = commit[:8]
	}
	return fmt.Sprintf("imgbatch %s (%s) built with %s on %s at %s",
		version, commitHash, goVersion, platform, date)
}

var rootCmd = &cobra.Command{
	Use:     "imgbatch",
	Version: version,
	Short:   "Batched image loading and filtering",
	Long:    `Loads raster images (PNG, JPEG, GIF, WebP, BMP, TIFF) into a shared batch, applies pixel filters, and writes results or snapshots.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			imgbatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "j", 0, "Decode worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().IntVar(&queueSize, "queue", 0, "Task queue capacity (0 = default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")
	rootCmd.SetVersionTemplate(getVersionInfo() + "\n")

	rootCmd.AddCommand(grayCmd, infoCmd, snapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
