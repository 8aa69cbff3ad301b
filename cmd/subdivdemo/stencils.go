// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/gogpu/subdiv"
)

// demoStencils builds the refinement of a unit quad: one face point
// and four edge midpoints, all from the quad's corners.
func demoStencils() ([]float32, *subdiv.StencilTable, error) {
	table, err := subdiv.NewStencilTable([]subdiv.Stencil{
		{Indices: []int32{0, 1, 2, 3}, Weights: []float32{0.25, 0.25, 0.25, 0.25}},
		{Indices: []int32{0, 1}, Weights: []float32{0.5, 0.5}},
		{Indices: []int32{1, 2}, Weights: []float32{0.5, 0.5}},
		{Indices: []int32{2, 3}, Weights: []float32{0.5, 0.5}},
		{Indices: []int32{3, 0}, Weights: []float32{0.5, 0.5}},
	})
	if err != nil {
		return nil, nil, err
	}
	src := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0.5,
		0, 1, 0,
	}
	return src, table, nil
}

type stencilResult struct {
	Backend  string      `json:"backend"`
	Stencils int         `json:"stencils"`
	Points   [][]float32 `json:"points"`
}

func stencilsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stencils",
		Usage: "Refine a quad's control points through a stencil table",
		Flags: commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			src, table, err := demoStencils()
			if err != nil {
				return err
			}
			desc := subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 3}
			dst := make([]float32, table.NumStencils()*3)
			if err := b.ApplyStencils(src, desc, dst, desc, table); err != nil {
				return err
			}

			res := stencilResult{
				Backend:  b.Name(),
				Stencils: table.NumStencils(),
			}
			for i := 0; i < table.NumStencils(); i++ {
				res.Points = append(res.Points, dst[i*3:i*3+3])
			}
			return printResult(res, func() {
				fmt.Printf("backend: %s\n", res.Backend)
				for i, p := range res.Points {
					fmt.Printf("  point %d: (%.4f, %.4f, %.4f)\n", i, p[0], p[1], p[2])
				}
			})
		},
	}
}

// printResult emits JSON when requested, otherwise runs the plain
// printer.
func printResult(v any, plain func()) error {
	if !jsonOutput {
		plain()
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
