package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/flowcook/pkg/flowstate"
	"github.com/dukex/flowcook/pkg/graph"
	cli "github.com/urfave/cli/v3"
)

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check flowstate files against the schema and the registered node types",
		ArgsUsage: "<flowstate file>...",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() == 0 {
				return errors.New("validate needs at least one flowstate file")
			}

			reg, err := newRegistry(ctx, command)
			if err != nil {
				return err
			}

			types := graph.New(reg)
			failed := 0

			for _, path := range command.Args().Slice() {
				doc, err := readDocument(path)
				if err == nil {
					err = flowstate.Validate(doc, types)
				}

				if err != nil {
					failed++

					fmt.Fprintf(command.ErrWriter, "%s: %v\n", path, err)

					continue
				}

				fmt.Fprintf(command.Writer, "%s: ok (%d nodes, %d connections, %d globals)\n",
					path, len(doc.Nodes), len(doc.Connections), len(doc.Globals))
			}

			if failed > 0 {
				return fmt.Errorf("%d invalid flowstate file(s)", failed)
			}

			return nil
		},
	}
}
