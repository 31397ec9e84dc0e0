package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/s4ayub/rowquant/format"
)

var (
	inputPath   string
	outputPath  string
	matrixName  string
	bits        int64
	compression string
	bigEndian   bool
	rawRows     int64
	rawCols     int64
	rowsLimit   int64
	configFile  string
	verbose     bool
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to a YAML defaults file (default ~/.rowquant.yaml)",
			Destination: &configFile,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "enable debug logging",
			Destination: &verbose,
		},
	}
}

// setupLogging installs the process-wide slog handler. Commands print their
// results on stdout, so logs stay on stderr and default to warnings only.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func parseBitRate(bits int64) (format.BitRate, error) {
	switch bits {
	case 2, 4, 8:
		return format.BitRate(bits), nil
	default:
		return 0, fmt.Errorf("unsupported bit rate %d (supported: 8, 4, 2)", bits)
	}
}

func parseCompression(name string) (format.CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return format.CompressionNone, nil
	case "zstd":
		return format.CompressionZstd, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unsupported compression %q (supported: none, zstd, s2, lz4)", name)
	}
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
