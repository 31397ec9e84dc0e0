package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/s4ayub/rowquant/blob"
	"github.com/s4ayub/rowquant/endian"
)

func inspectCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "blob file to inspect",
			Required:    true,
			Destination: &inputPath,
		},
		&cli.Int64Flag{
			Name:        "rows",
			Usage:       "dump scale/bias for the first N rows of each matrix",
			Destination: &rowsLimit,
		},
	}, commonFlags()...)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Describe a fused row blob without decoding it",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_ = ctx
			setupLogging()

			stat, err := os.Stat(inputPath)
			if err != nil {
				return fmt.Errorf("stat blob: %w", err)
			}
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read blob: %w", err)
			}
			parsed, err := blob.ParseMatrixBlob(data)
			if err != nil {
				return fmt.Errorf("parse blob: %w", err)
			}

			fmt.Printf("Blob: %s (%s)\n", inputPath, formatBytes(stat.Size()))
			printBlobHeader(parsed)
			printMatrixTable(parsed)
			if rowsLimit > 0 {
				printRowTrailers(parsed, int(rowsLimit))
			}

			return nil
		},
	}
}

func printBlobHeader(parsed *blob.MatrixBlob) {
	section("Header")
	row("magic", "0xFA10 (valid)")
	endianness := "little"
	native := endian.IsNativeLittleEndian()
	if !parsed.IsLittleEndian() {
		endianness = "big"
		native = endian.IsNativeBigEndian()
	}
	if native {
		endianness += " (native)"
	}
	row("endianness", endianness)
	row("compression", strings.ToLower(parsed.Compression().String()))
	row("matrices", fmt.Sprintf("%d", parsed.MatrixCount()))
	row("names", fmt.Sprintf("%v", parsed.HasMatrixNames()))
	row("created_at", parsed.CreatedAt().UTC().Format(time.RFC3339Nano))
	row("checksum", fmt.Sprintf("0x%016x", parsed.Checksum()))

	stats := parsed.Stats()
	row("payload", fmt.Sprintf("%s stored, %s fused (%.1f%% saved)",
		formatBytes(stats.CompressedSize), formatBytes(stats.OriginalSize), stats.SpaceSavings()))
}

func printMatrixTable(parsed *blob.MatrixBlob) {
	section("Matrices")
	fmt.Printf("%-24s %-18s %-11s %-5s %-10s %s\n", "NAME", "ID", "DIMS", "RATE", "FUSED", "RATIO")
	for i := 0; i < parsed.MatrixCount(); i++ {
		view, err := parsed.MatrixAt(i)
		if err != nil {
			fmt.Printf("(matrix %d: %v)\n", i, err)

			continue
		}

		name := view.Name()
		if name == "" {
			name = "-"
		}
		fused := int64(len(view.Bytes()))
		ratio := "-"
		if raw := int64(view.Rows()) * int64(view.Cols()) * 4; raw > 0 {
			ratio = fmt.Sprintf("%.3fx", float64(fused)/float64(raw))
		}
		fmt.Printf("%-24s 0x%016x %-11s %-5s %-10s %s\n",
			name, view.ID(), fmt.Sprintf("%dx%d", view.Rows(), view.Cols()),
			view.BitRate(), formatBytes(fused), ratio)
	}
}

func printRowTrailers(parsed *blob.MatrixBlob, limit int) {
	for i := 0; i < parsed.MatrixCount(); i++ {
		view, err := parsed.MatrixAt(i)
		if err != nil {
			continue
		}

		label := view.Name()
		if label == "" {
			label = fmt.Sprintf("0x%016x", view.ID())
		}
		section(fmt.Sprintf("Rows: %s", label))

		shown := view.Rows()
		if limit < shown {
			shown = limit
		}
		for r := 0; r < shown; r++ {
			scale, bias, ok := view.RowScaleBias(r)
			if !ok {
				break
			}
			fmt.Printf("%6d  scale=%-14g bias=%g\n", r, scale, bias)
		}
		if shown < view.Rows() {
			fmt.Printf("... (%d shown of %d)\n", shown, view.Rows())
		}
	}
}

func section(title string) {
	fmt.Printf("\n--- %s ---\n", title)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-14s %s\n", label+":", value)
}
