package port

import (
	"context"
	"releasebot/internal/core/domain"
)

type Command interface {
	// Respond handles one invocation of the command and returns the message to show. It must stay safe to run to
	// completion after the caller has already acknowledged the interaction with a deferred response.
	Respond(ctx context.Context, state State, interaction *domain.Interaction) (*domain.Response, error)
	// GetCommand retrieves the command name the handler is registered under.
	GetCommand() string
	// Definition describes the command and its options as announced to the platform.
	Definition() domain.CommandDefinition
}

type RouterView interface {
	// Lookup returns the command registered under exactly name.
	Lookup(name string) (Command, bool)
	// Version increases with every rebuild of the router.
	Version() uint64
	// ListCommands returns the registered command names in lexical order.
	ListCommands() []string
}

type CommandRouter interface {
	// View returns the current immutable snapshot of the router.
	View() RouterView
}

// State is the long-lived context shared by every handler invocation.
type State struct {
	Roles    RoleFetcher
	Releases ReleaseFetcher
	Text     TextGenerator
	Stats    StatsProvider
}

type StatsProvider interface {
	// InFlightFollowUps returns the number of follow-ups still waiting on their handler.
	InFlightFollowUps() int
	// RouterView returns the router snapshot currently served.
	RouterView() RouterView
}
