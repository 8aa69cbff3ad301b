// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command subdivdemo evaluates small built-in subdivision workloads,
// mostly useful for checking that a backend works on this machine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/backend"
	_ "github.com/gogpu/subdiv/backend/cpu"
	_ "github.com/gogpu/subdiv/backend/wgpu"
)

var (
	backendName string
	jsonOutput  bool
	verbose     bool
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "evaluation backend (auto, cpu, wgpu)",
			Value:       "auto",
			Destination: &backendName,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print results as JSON",
			Destination: &jsonOutput,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "enable debug logging",
			Destination: &verbose,
		},
	}
}

// openBackend resolves and initializes the selected backend.
func openBackend() (backend.Backend, error) {
	if verbose {
		subdiv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	var b backend.Backend
	if backendName == "" || backendName == "auto" {
		b = backend.Default()
	} else {
		b = backend.Get(backendName)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %q", backend.ErrBackendNotAvailable, backendName)
	}
	if err := b.Init(); err != nil {
		return nil, fmt.Errorf("init %s backend: %w", b.Name(), err)
	}
	return b, nil
}

func main() {
	app := &cli.Command{
		Name:  "subdivdemo",
		Usage: "Subdivision surface evaluation demos",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			backendsCmd(),
			stencilsCmd(),
			patchesCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func backendsCmd() *cli.Command {
	return &cli.Command{
		Name:  "backends",
		Usage: "List registered evaluation backends",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, name := range backend.Available() {
				fmt.Println(name)
			}
			return nil
		},
	}
}
