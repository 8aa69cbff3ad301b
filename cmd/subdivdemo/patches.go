// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/gogpu/subdiv"
)

// demoPatch builds a single uniform B-spline patch over a 4x4 control
// grid shaped like a hump: the center four points are raised.
func demoPatch() ([]float32, *subdiv.PatchTable) {
	src := make([]float32, 16*3)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			i := (row*4 + col) * 3
			src[i+0] = float32(col)
			src[i+1] = float32(row)
			if (row == 1 || row == 2) && (col == 1 || col == 2) {
				src[i+2] = 1
			}
		}
	}

	indices := make([]int32, 16)
	for i := range indices {
		indices[i] = int32(i)
	}
	table := &subdiv.PatchTable{
		Arrays: []subdiv.PatchArray{{
			Basis:              subdiv.BasisBSpline,
			NumControlVertices: 16,
			IndexBase:          0,
			PrimitiveIDBase:    0,
			NumPatches:         1,
		}},
		Indices: indices,
		Params:  []subdiv.PatchParam{subdiv.MakePatchParam(0, 0, 0, 0, false, 0, 0)},
	}
	return src, table
}

type patchResult struct {
	Backend string       `json:"backend"`
	Coords  [][2]float32 `json:"coords"`
	Points  [][]float32  `json:"points"`
}

func patchesCmd() *cli.Command {
	var samples int64
	flags := append(commonFlags(), &cli.Int64Flag{
		Name:        "samples",
		Aliases:     []string{"n"},
		Usage:       "samples per parametric axis",
		Value:       3,
		Destination: &samples,
	})
	return &cli.Command{
		Name:  "patches",
		Usage: "Evaluate limit points on a B-spline patch",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if samples < 1 {
				return fmt.Errorf("samples must be at least 1, got %d", samples)
			}
			b, err := openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			src, table := demoPatch()
			n := int(samples)
			var coords []subdiv.PatchCoord
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					coords = append(coords, subdiv.PatchCoord{
						ArrayIndex: 0,
						PatchIndex: 0,
						S:          float32(j) / float32(max(1, n-1)),
						T:          float32(i) / float32(max(1, n-1)),
					})
				}
			}

			desc := subdiv.BufferDescriptor{Offset: 0, Length: 3, Stride: 3}
			dst := make([]float32, len(coords)*3)
			if err := b.EvalPatches(src, desc, dst, desc, coords, table); err != nil {
				return err
			}

			res := patchResult{Backend: b.Name()}
			for i, c := range coords {
				res.Coords = append(res.Coords, [2]float32{c.S, c.T})
				res.Points = append(res.Points, dst[i*3:i*3+3])
			}
			return printResult(res, func() {
				fmt.Printf("backend: %s\n", res.Backend)
				for i, p := range res.Points {
					fmt.Printf("  (s=%.2f, t=%.2f) -> (%.4f, %.4f, %.4f)\n",
						res.Coords[i][0], res.Coords[i][1], p[0], p[1], p[2])
				}
			})
		},
	}
}
