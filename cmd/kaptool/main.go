// Command kaptool converts and inspects MapTech BSB/KAP nautical charts.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var verbosity int

func main() {
	root := &cobra.Command{
		Use:           "kaptool",
		Short:         "Convert and inspect MapTech BSB/KAP nautical charts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(verbosity)
		},
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	root.AddCommand(newKapImgCmd(), newImgKapCmd(), newInfoCmd(), newVerifyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func configureLogging(verbosity int) {
	var level slog.Level
	switch verbosity {
	case 0:
		level = slog.LevelError
	case 1:
		level = slog.LevelWarn
	case 2:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// defaultOutput derives an output path next to the input, swapping the
// extension: chart.kap becomes chart.png and vice versa.
func defaultOutput(in, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))

	return filepath.Join(filepath.Dir(in), stem+"."+ext)
}
