package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Command names, without the leading slash.
const (
	cmdStart   = "start"
	cmdSheet   = "fiche"
	cmdMissing = "manque"
	cmdReset   = "reset"
)

var commandMenu = []tgbotapi.BotCommand{
	{Command: cmdStart, Description: "Start a new listing sheet"},
	{Command: cmdSheet, Description: "Show the current sheet"},
	{Command: cmdMissing, Description: "List the fields still empty"},
	{Command: cmdReset, Description: "Discard the sheet and start over"},
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (r *Router) RegisterCommands() error {
	_, err := r.api.Request(tgbotapi.NewSetMyCommands(commandMenu...))
	return err
}
