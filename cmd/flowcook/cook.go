package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/graph"
	"github.com/dukex/flowcook/pkg/log"
	"github.com/dukex/flowcook/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var errCookFailed = errors.New("cook failed")

func CookCommand() *cli.Command {
	return &cli.Command{
		Name:      "cook",
		Usage:     "Load a flowstate file, cook one node and print its output",
		ArgsUsage: "<flowstate file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "path",
				Aliases:  []string{"p"},
				Usage:    "Path of the node to cook",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "output",
				Usage: "Output index to print",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Ignore cached results of the node and its upstream",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "Override a global as KEY=VALUE (repeatable, values of the same key accumulate)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return errors.New("cook needs exactly one flowstate file")
			}

			logger := log.FromContext(ctx)

			reg, err := newRegistry(ctx, command)
			if err != nil {
				return err
			}

			doc, err := readDocument(command.Args().First())
			if err != nil {
				return err
			}

			g := graph.New(reg, graph.WithLogger(logger))
			if err := flowstate.Load(g, doc, nil); err != nil {
				return err
			}

			if err := applyGlobals(g, command.StringSlice("set")); err != nil {
				return err
			}

			n, err := g.CookPath(ctx, command.String("path"), command.Bool("force"))
			if err != nil {
				return err
			}

			for _, w := range n.Warnings() {
				fmt.Fprintln(command.ErrWriter, "warning:", w)
			}

			if n.State() == models.StateError {
				for _, e := range n.Errors() {
					fmt.Fprintln(command.ErrWriter, "error:", e)
				}

				return errCookFailed
			}

			lines, err := g.Output(n, command.Int("output"))
			if err != nil {
				return err
			}

			for _, line := range lines {
				fmt.Fprintln(command.Writer, line)
			}

			logger.DebugContext(ctx, "Cooked node", "path", n.Path(), "lines", len(lines), "elapsed", n.LastCookTime())

			return nil
		},
	}
}

func applyGlobals(g *graph.Graph, assignments []string) error {
	values := make(map[string][]string)
	order := []string{}

	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("global %q is not KEY=VALUE", a)
		}

		if _, seen := values[key]; !seen {
			order = append(order, key)
		}

		values[key] = append(values[key], value)
	}

	for _, key := range order {
		if err := g.SetGlobal(key, values[key]); err != nil {
			return err
		}
	}

	return nil
}
