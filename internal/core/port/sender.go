package port

import (
	"context"
	"releasebot/internal/core/domain"
)

type FollowUpSender interface {
	// UpdateResponse replaces the deferred acknowledgement of an interaction with the final response.
	UpdateResponse(ctx context.Context, interaction *domain.Interaction, response *domain.Response) error
}

type CommandPublisher interface {
	// PublishCommands overwrites the commands announced to the platform with the given definitions.
	PublishCommands(ctx context.Context, definitions []domain.CommandDefinition) error
}

type Alerter interface {
	// Alert notifies an operator about a problem that has no caller left to report to.
	Alert(ctx context.Context, text string) error
}
