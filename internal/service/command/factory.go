package command

import (
	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
)

func NewCommands(pub *publisher.Publisher) []core.Command {
	commands := []core.Command{
		NewStatusCommand(pub),
		NewFinalizeCommand(pub),
		NewSequenceCommand(pub),
		NewExcludeCommand(pub),
		NewPreviewCommand(pub),
	}
	return append(commands, NewHelpCommand(commands))
}
