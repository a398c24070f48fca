package command

import (
	"context"
	"fmt"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const promptOption = "prompt"

type Ask struct {
	command string
	model   string
}

func NewAsk(command, model string) *Ask {
	return &Ask{command: command, model: model}
}

func (a *Ask) GetCommand() string {
	return a.command
}

func (a *Ask) Definition() domain.CommandDefinition {
	return domain.CommandDefinition{
		Name:        a.command,
		Description: "Ask the language model a question",
		Options: []domain.OptionDefinition{{
			Name:        promptOption,
			Description: "What you want to know",
			Type:        domain.OptionString,
			Required:    true,
		}},
	}
}

func (a *Ask) Respond(ctx context.Context, state port.State, interaction *domain.Interaction) (*domain.Response, error) {
	l := log.With().
		Str("interactionId", interaction.ID).
		Str("userId", interaction.UserID).
		Str("command", a.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	if state.Text == nil {
		return nil, domain.NewUserError("asking questions is not configured on this bot")
	}

	promptText, err := extractPrompt(interaction)
	if err != nil {
		return nil, err
	}

	response, err := state.Text.GenerateFromPrompt(ctx, []domain.Prompt{{
		Author: domain.User,
		Model:  a.model,
		Prompt: promptText,
	}})
	if err != nil {
		l.Error().Err(err).Msg("failed to generate reply")
		return nil, domain.WrapUserError(err, "failed to generate a reply")
	}

	l.Debug().
		Str("model", response.Metadata.Model).
		Int("totalTokens", response.Metadata.TotalTokens).
		Msg("reply generated")

	return domain.MessageResponse(truncate(response.Response, domain.MessageLimit)), nil
}

func extractPrompt(interaction *domain.Interaction) (string, error) {
	if interaction.Command == nil {
		return "", domain.NewUserError("please input a prompt")
	}

	option, ok := interaction.Command.Options[promptOption]
	if !ok {
		return "", domain.NewUserError("please input a prompt")
	}

	promptText, ok := option.String()
	if !ok {
		return "", domain.NewUserError(fmt.Sprintf("the `%s` argument must be text", promptOption))
	}

	if promptText == "" {
		return "", domain.WrapUserError(domain.ErrEmptyPrompt, "please input a prompt")
	}

	return promptText, nil
}

// truncate shortens s to at most limit runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit-1]) + "…"
}
