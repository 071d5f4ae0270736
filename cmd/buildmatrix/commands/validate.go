package commands

import (
	"context"
	"fmt"
)

// ValidMessage is printed when the configuration composes cleanly.
const ValidMessage = "The configuration provided is valid."

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct{}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	if _, err := root.compose(context.Background()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(g.Stdout, ValidMessage)
	return nil
}
