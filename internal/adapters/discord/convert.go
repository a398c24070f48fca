package discord

import (
	"fmt"
	"releasebot/internal/core/domain"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ToInteraction converts a parsed platform interaction into the domain representation.
func ToInteraction(i *discordgo.Interaction, receivedAt time.Time) (*domain.Interaction, error) {
	interaction := &domain.Interaction{
		ID:            i.ID,
		ApplicationID: i.AppID,
		Token:         i.Token,
		Kind:          toKind(i.Type),
		GuildID:       i.GuildID,
		ChannelID:     i.ChannelID,
		ReceivedAt:    receivedAt,
	}

	switch {
	case i.Member != nil && i.Member.User != nil:
		interaction.UserID = i.Member.User.ID
	case i.User != nil:
		interaction.UserID = i.User.ID
	}

	if interaction.Kind != domain.KindCommand {
		return interaction, nil
	}

	data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok || data.Name == "" {
		return nil, fmt.Errorf("%w: interaction %s", domain.ErrMissingCommandData, i.ID)
	}

	interaction.Command = &domain.CommandInvocation{
		Name:    data.Name,
		Options: toOptions(data.Options),
	}

	return interaction, nil
}

func toKind(t discordgo.InteractionType) domain.InteractionKind {
	switch t {
	case discordgo.InteractionPing:
		return domain.KindPing
	case discordgo.InteractionApplicationCommand:
		return domain.KindCommand
	case discordgo.InteractionMessageComponent:
		return domain.KindComponent
	case discordgo.InteractionApplicationCommandAutocomplete:
		return domain.KindAutocomplete
	case discordgo.InteractionModalSubmit:
		return domain.KindModalSubmit
	default:
		return domain.KindUnknown
	}
}

func toOptions(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]domain.Option {
	out := make(map[string]domain.Option, len(options))
	for _, option := range options {
		if option == nil {
			continue
		}

		out[option.Name] = domain.Option{
			Name:    option.Name,
			Type:    domain.OptionType(option.Type),
			Value:   option.Value,
			Options: toOptions(option.Options),
		}
	}

	return out
}

// ToInteractionResponse renders a domain response in the platform's wire format.
func ToInteractionResponse(r *domain.Response) *discordgo.InteractionResponse {
	switch r.Kind {
	case domain.ResponsePong:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case domain.ResponseDeferredChannelMessageWithSource:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: flags(r)},
		}
	default:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: r.Content,
				Embeds:  ToEmbeds(r.Embeds),
				Flags:   flags(r),
			},
		}
	}
}

// ToWebhookEdit renders a domain response as an edit of the original deferred response.
func ToWebhookEdit(r *domain.Response) *discordgo.WebhookEdit {
	content := r.Content
	embeds := ToEmbeds(r.Embeds)

	return &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}
}

func flags(r *domain.Response) discordgo.MessageFlags {
	if r.Ephemeral {
		return discordgo.MessageFlagsEphemeral
	}

	return 0
}

func ToEmbeds(embeds []domain.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, len(embeds))
	for i, embed := range embeds {
		out[i] = &discordgo.MessageEmbed{
			Title:       embed.Title,
			Description: embed.Description,
			Color:       embed.Color,
		}
		if embed.Footer != "" {
			out[i].Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
		}
	}

	return out
}

// ToApplicationCommands converts command definitions into chat input commands.
func ToApplicationCommands(definitions []domain.CommandDefinition) []*discordgo.ApplicationCommand {
	commands := make([]*discordgo.ApplicationCommand, len(definitions))
	for i, definition := range definitions {
		options := make([]*discordgo.ApplicationCommandOption, len(definition.Options))
		for j, option := range definition.Options {
			options[j] = &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionType(option.Type),
				Name:        option.Name,
				Description: option.Description,
				Required:    option.Required,
			}
		}

		commands[i] = &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        definition.Name,
			Description: definition.Description,
			Options:     options,
		}
	}

	return commands
}
