package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/bcdreview/internal/logger"
	"github.com/tzrikka/bcdreview/pkg/config"
	"github.com/tzrikka/bcdreview/pkg/temporal"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	cmd := &cli.Command{
		Name:    "bcdreview",
		Usage:   "Request browser team reviews for browser-compat-data pull requests",
		Version: bi.Main.Version,
		Flags:   config.Flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l := initLog(cmd.Bool("dev"), cmd.Bool("pretty-log"))
			return temporal.Run(logger.WithContext(ctx, l), cmd)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLog initializes the logger for the Temporal worker and the
// webhook listener, based on whether it's running in development mode.
func initLog(devMode, prettyLog bool) *slog.Logger {
	var handler slog.Handler
	if devMode || prettyLog {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			AddSource:  true,
			Level:      slog.LevelDebug,
			TimeFormat: time.TimeOnly + ".000",
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelInfo,
		})
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}
