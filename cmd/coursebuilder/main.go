package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/coursebuilder/cmd/coursebuilder/commands"
	ferrors "git.home.luguber.info/inful/coursebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/coursebuilder/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("coursebuilder"),
		kong.Description("Authoring toolchain for markdown course lessons: lint, extract quizzes, build bundles, and run continuous validation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		adapter.HandleError(err)
		os.Exit(adapter.ExitCodeFor(err))
	}
}
