package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
)

func ConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a flowstate file between JSON and YAML (chosen by file extension)",
		ArgsUsage: "<input> <output>",
		Action: func(_ context.Context, command *cli.Command) error {
			if command.Args().Len() != 2 {
				return errors.New("convert needs an input and an output file")
			}

			in, out := command.Args().Get(0), command.Args().Get(1)

			doc, err := readDocument(in)
			if err != nil {
				return err
			}

			if err := writeDocument(out, doc); err != nil {
				return err
			}

			fmt.Fprintf(command.Writer, "wrote %s\n", out)

			return nil
		},
	}
}
