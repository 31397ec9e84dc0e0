package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/s4ayub/rowquant/blob"
)

type namedMatrix struct {
	name string
	data []float32
	rows int
	cols int
}

func quantizeCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "input file: JSON matrices or raw little-endian float32",
			Required:    true,
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "output blob path (default: input path with .rqb extension)",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "matrix name for single-matrix input",
			Value:       "matrix",
			Destination: &matrixName,
		},
		&cli.Int64Flag{
			Name:        "bits",
			Aliases:     []string{"b"},
			Usage:       "code width in bits (8, 4 or 2)",
			Value:       8,
			Destination: &bits,
		},
		&cli.StringFlag{
			Name:        "compression",
			Aliases:     []string{"c"},
			Usage:       "payload compression (none, zstd, s2, lz4)",
			Value:       "none",
			Destination: &compression,
		},
		&cli.BoolFlag{
			Name:        "big-endian",
			Usage:       "write scale/bias trailers in big-endian byte order",
			Destination: &bigEndian,
		},
		&cli.Int64Flag{
			Name:        "rows",
			Usage:       "row count for raw float32 input",
			Destination: &rawRows,
		},
		&cli.Int64Flag{
			Name:        "cols",
			Usage:       "column count for raw float32 input",
			Destination: &rawCols,
		},
	}, commonFlags()...)

	return &cli.Command{
		Name:  "quantize",
		Usage: "Quantize float32 matrices into a fused row blob",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_ = ctx
			setupLogging()

			cfg, err := loadFileConfig(cmd)
			if err != nil {
				return err
			}
			applyQuantizeConfig(cmd, cfg)

			rate, err := parseBitRate(bits)
			if err != nil {
				return err
			}
			comp, err := parseCompression(compression)
			if err != nil {
				return err
			}

			matrices, err := readMatrices(inputPath, int(rawRows), int(rawCols))
			if err != nil {
				return err
			}

			opts := []blob.MatrixEncoderOption{
				blob.WithPayloadCompression(comp),
				blob.WithMatrixNames(true),
			}
			if bigEndian {
				opts = append(opts, blob.WithBigEndian())
			}

			encoder, err := blob.NewMatrixEncoder(time.Now(), opts...)
			if err != nil {
				return err
			}

			var rawBytes int64
			for _, m := range matrices {
				if err := encoder.AddMatrixBitRate(m.name, m.data, m.rows, m.cols, rate); err != nil {
					return fmt.Errorf("quantize %q: %w", m.name, err)
				}
				rawBytes += int64(len(m.data)) * 4
				slog.Debug("quantized matrix",
					"name", m.name, "rows", m.rows, "cols", m.cols, "rate", rate.String())
			}

			data, err := encoder.Finish()
			if err != nil {
				return err
			}

			out := outputPath
			if out == "" {
				out = replaceExt(inputPath, ".rqb")
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write blob: %w", err)
			}

			ratio := "-"
			if rawBytes > 0 {
				ratio = fmt.Sprintf("%.3fx", float64(len(data))/float64(rawBytes))
			}
			fmt.Printf("wrote %s: %d matrices, %s at %s (%s of float32)\n",
				out, len(matrices), formatBytes(int64(len(data))), rate, ratio)

			return nil
		},
	}
}

// readMatrices loads the input file. Raw mode is selected by passing --rows
// and --cols; otherwise the file is parsed as JSON, either one nested array
// or an object of name to nested array.
func readMatrices(path string, rows, cols int) ([]namedMatrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if rows > 0 || cols > 0 {
		m, err := parseRawMatrix(data, rows, cols)
		if err != nil {
			return nil, err
		}

		return []namedMatrix{m}, nil
	}

	return parseJSONMatrices(data)
}

func parseRawMatrix(data []byte, rows, cols int) (namedMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return namedMatrix{}, fmt.Errorf("raw input needs positive --rows and --cols, got %dx%d", rows, cols)
	}

	want := rows * cols * 4
	if len(data) != want {
		return namedMatrix{}, fmt.Errorf("raw input is %d bytes, want %d for %dx%d float32", len(data), want, rows, cols)
	}

	values := make([]float32, rows*cols)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	return namedMatrix{name: matrixName, data: values, rows: rows, cols: cols}, nil
}

func parseJSONMatrices(data []byte) ([]namedMatrix, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, errors.New("empty input")
	}

	if trimmed[0] == '[' {
		var rows [][]float32
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("parse matrix JSON: %w", err)
		}

		m, err := flattenNested(matrixName, rows)
		if err != nil {
			return nil, err
		}

		return []namedMatrix{m}, nil
	}

	var byName map[string][][]float32
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("parse matrix JSON: %w", err)
	}

	// Map order is random; sort so repeated runs produce identical blobs.
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]namedMatrix, 0, len(names))
	for _, name := range names {
		m, err := flattenNested(name, byName[name])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, nil
}

func flattenNested(name string, rows [][]float32) (namedMatrix, error) {
	if len(rows) == 0 {
		return namedMatrix{name: name}, nil
	}

	cols := len(rows[0])
	flat := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return namedMatrix{}, fmt.Errorf("matrix %q: row %d has %d columns, row 0 has %d", name, i, len(row), cols)
		}
		flat = append(flat, row...)
	}

	return namedMatrix{name: name, data: flat, rows: len(rows), cols: cols}, nil
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexByte(path, '/') {
		return path[:i] + ext
	}

	return path + ext
}
