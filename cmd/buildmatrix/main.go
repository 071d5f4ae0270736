package main

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/buildmatrix/cmd/buildmatrix/commands"
	"git.home.luguber.info/inful/buildmatrix/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser, err := commands.NewParser(cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(commands.NewGlobal(), cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
