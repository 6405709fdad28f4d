package sessions

import (
	"parkshare/internal/app/commands"
	"parkshare/internal/app/dto"
	"parkshare/internal/app/queries"
)

// Register wires every session command and query onto the buses.
func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, deps *Deps) {
	commands.Register[OpenSessionCommand, dto.Session](cmds, OpenSessionHandler{deps})
	commands.Register[SelectDateCommand, dto.Transition](cmds, SelectDateHandler{deps})
	commands.Register[SelectSlotCommand, dto.Transition](cmds, SelectSlotHandler{deps})
	commands.Register[SelectModeCommand, dto.Transition](cmds, SelectModeHandler{deps})
	commands.Register[SetTimesCommand, dto.Session](cmds, SetTimesHandler{deps})
	commands.Register[ConfirmCommand, *dto.Confirmation](cmds, ConfirmHandler{deps})
	commands.Register[CancelSessionCommand, dto.Session](cmds, CancelSessionHandler{deps})
	commands.Register[CloseSessionCommand, dto.Session](cmds, CloseSessionHandler{deps})

	queries.Register[GetSessionQuery, dto.Session](qs, GetSessionHandler{deps})
	queries.Register[GetQuoteQuery, dto.Quote](qs, GetQuoteHandler{deps})
}
