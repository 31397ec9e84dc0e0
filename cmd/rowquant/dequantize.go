package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/s4ayub/rowquant/blob"
)

func dequantizeCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "blob file to decode",
			Required:    true,
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output JSON path (default: stdout)",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "decode a single matrix by name (default: all)",
			Destination: &matrixName,
		},
	}, commonFlags()...)

	return &cli.Command{
		Name:  "dequantize",
		Usage: "Decode a fused row blob back to float32 JSON",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_ = ctx
			setupLogging()

			cfg, err := loadFileConfig(cmd)
			if err != nil {
				return err
			}
			applyWorkersConfig(cfg)

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read blob: %w", err)
			}
			parsed, err := blob.ParseMatrixBlob(data)
			if err != nil {
				return fmt.Errorf("parse blob: %w", err)
			}
			slog.Debug("parsed blob",
				"matrices", parsed.MatrixCount(), "compression", parsed.Compression().String())

			var out any
			if cmd.IsSet("name") {
				view, err := parsed.MatrixByName(matrixName)
				if err != nil {
					return err
				}
				values, err := view.Dequantize()
				if err != nil {
					return fmt.Errorf("dequantize %q: %w", matrixName, err)
				}
				out = nestRows(values, view.Rows(), view.Cols())
			} else {
				matrices, err := parsed.Materialize()
				if err != nil {
					return err
				}
				byName := make(map[string][][]float32, len(matrices))
				for _, m := range matrices {
					name := m.Name
					if name == "" {
						name = fmt.Sprintf("0x%016x", m.ID)
					}
					byName[name] = nestRows(m.Data, m.Rows, m.Cols)
				}
				out = byName
			}

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("encode JSON: %w", err)
			}
			encoded = append(encoded, '\n')

			if outputPath == "" {
				_, err = os.Stdout.Write(encoded)

				return err
			}

			return os.WriteFile(outputPath, encoded, 0o644)
		},
	}
}

// nestRows reslices a row-major matrix into per-row slices without copying.
func nestRows(values []float32, rows, cols int) [][]float32 {
	out := make([][]float32, rows)
	for r := 0; r < rows; r++ {
		out[r] = values[r*cols : (r+1)*cols]
	}

	return out
}
