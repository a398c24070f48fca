package sender

import (
	"context"
	"errors"
	"fmt"
	"releasebot/internal/adapters/discord"
	"releasebot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

var ErrMissingToken = errors.New("interaction carries no continuation token")

// DiscordAPI is the subset of the Discord REST API the bot talks to.
type DiscordAPI interface {
	EditOriginalResponse(ctx context.Context, appID, token string, edit *discordgo.WebhookEdit) error
	GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	CurrentApplicationID(ctx context.Context) (string, error)
	OverwriteCommands(ctx context.Context, appID, guildID string, commands []*discordgo.ApplicationCommand) error
}

// Discord edits deferred responses, looks up guild roles and publishes commands.
type Discord struct {
	api DiscordAPI
	// commands are published globally when empty
	commandGuildID string
}

func NewDiscord(api DiscordAPI, commandGuildID string) *Discord {
	return &Discord{api: api, commandGuildID: commandGuildID}
}

// NewDiscordSession creates a REST-only session authenticated as the bot.
func NewDiscordSession(token, commandGuildID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	return NewDiscord(&sessionAPI{session: session}, commandGuildID), nil
}

func (d *Discord) UpdateResponse(ctx context.Context, interaction *domain.Interaction, response *domain.Response) error {
	if interaction.Token == "" {
		return ErrMissingToken
	}

	err := d.api.EditOriginalResponse(ctx, interaction.ApplicationID, interaction.Token, discord.ToWebhookEdit(response))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSendingFollowUpFailed, err)
	}

	return nil
}

func (d *Discord) GuildRoles(ctx context.Context, guildID string) ([]domain.Role, error) {
	roles, err := d.api.GuildRoles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching roles of guild %s: %w", guildID, err)
	}

	out := make([]domain.Role, 0, len(roles))
	for _, role := range roles {
		if role == nil {
			continue
		}
		out = append(out, domain.Role{ID: role.ID, Name: role.Name})
	}

	return out, nil
}

// PublishCommands replaces the commands registered for the application, globally or for a single guild.
func (d *Discord) PublishCommands(ctx context.Context, definitions []domain.CommandDefinition) error {
	appID, err := d.api.CurrentApplicationID(ctx)
	if err != nil {
		return fmt.Errorf("looking up application: %w", err)
	}

	err = d.api.OverwriteCommands(ctx, appID, d.commandGuildID, discord.ToApplicationCommands(definitions))
	if err != nil {
		return fmt.Errorf("overwriting commands: %w", err)
	}

	log.Info().
		Str("applicationId", appID).
		Str("guildId", d.commandGuildID).
		Int("commands", len(definitions)).
		Msg("published commands")

	return nil
}

type sessionAPI struct {
	session *discordgo.Session
}

func (s *sessionAPI) EditOriginalResponse(ctx context.Context, appID, token string, edit *discordgo.WebhookEdit) error {
	_, err := s.session.InteractionResponseEdit(&discordgo.Interaction{AppID: appID, Token: token}, edit,
		discordgo.WithContext(ctx))
	return err
}

func (s *sessionAPI) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	return s.session.GuildRoles(guildID, discordgo.WithContext(ctx))
}

func (s *sessionAPI) CurrentApplicationID(ctx context.Context) (string, error) {
	app, err := s.session.Application("@me")
	if err != nil {
		return "", err
	}

	return app.ID, nil
}

func (s *sessionAPI) OverwriteCommands(ctx context.Context, appID, guildID string,
	commands []*discordgo.ApplicationCommand) error {
	_, err := s.session.ApplicationCommandBulkOverwrite(appID, guildID, commands, discordgo.WithContext(ctx))
	return err
}
