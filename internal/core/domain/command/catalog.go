package command

import "releasebot/internal/core/port"

// Catalog returns the commands served by the bot.
func Catalog(askModel string) []port.Command {
	return []port.Command{
		NewNewRelease("new-release"),
		NewAsk("ask", askModel),
		NewDebug("debug"),
	}
}
