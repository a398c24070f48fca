package port

import (
	"context"
	"releasebot/internal/core/domain"
)

type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompts []domain.Prompt) (domain.ModelResponse, error)
}

type ReleaseFetcher interface {
	// FetchAlbum returns the album with all of its tracks.
	FetchAlbum(ctx context.Context, id string) (domain.Album, error)
}

type RoleFetcher interface {
	GuildRoles(ctx context.Context, guildID string) ([]domain.Role, error)
}
