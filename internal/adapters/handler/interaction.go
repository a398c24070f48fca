package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"releasebot/internal/adapters/discord"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"releasebot/internal/core/service"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"

	DefaultMaxBodyBytes = 1 << 20
)

type Dispatcher interface {
	Dispatch(ctx context.Context, interaction *domain.Interaction) (*domain.Response, error)
}

type Verifier interface {
	Verify(body []byte, timestamp, signatureHex string) error
}

// Interaction is the webhook endpoint the platform posts interactions to.
type Interaction struct {
	dispatcher   Dispatcher
	verifier     Verifier
	observer     port.Observer
	maxBodyBytes int64
	errorFooter  string
	now          func() time.Time
}

type InteractionOption func(*Interaction)

func WithMaxBodyBytes(n int64) InteractionOption {
	return func(h *Interaction) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func WithVerificationObserver(observer port.Observer) InteractionOption {
	return func(h *Interaction) {
		if observer != nil {
			h.observer = observer
		}
	}
}

func WithNotFoundFooter(footer string) InteractionOption {
	return func(h *Interaction) {
		h.errorFooter = footer
	}
}

func NewInteraction(dispatcher Dispatcher, verifier Verifier, opts ...InteractionOption) *Interaction {
	h := &Interaction{
		dispatcher:   dispatcher,
		verifier:     verifier,
		observer:     service.NopObserver{},
		maxBodyBytes: DefaultMaxBodyBytes,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Interaction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	receivedAt := h.now()
	l := log.Ctx(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn().Int64("limit", tooLarge.Limit).Msg("interaction body too large")
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		l.Warn().Err(err).Msg("failed to read interaction body")
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	// nothing from the body is trusted before this point
	if err := h.verifier.Verify(body, r.Header.Get(TimestampHeader), r.Header.Get(SignatureHeader)); err != nil {
		l.Warn().Err(errors.Unwrap(err)).Msg("rejected interaction")
		h.observer.VerificationFailed()
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var raw discordgo.Interaction
	if err := json.Unmarshal(body, &raw); err != nil {
		l.Warn().Err(err).Msg("malformed interaction payload")
		http.Error(w, "malformed interaction", http.StatusBadRequest)
		return
	}

	interaction, err := discord.ToInteraction(&raw, receivedAt)
	if err != nil {
		l.Warn().Err(err).Msg("malformed interaction payload")
		http.Error(w, "malformed interaction", http.StatusBadRequest)
		return
	}

	response, err := h.dispatcher.Dispatch(r.Context(), interaction)
	if err != nil {
		var notFound *domain.CommandNotFoundError
		switch {
		case errors.As(err, &notFound):
			response = domain.RenderError(notFound.Name, err, h.errorFooter)
		case errors.Is(err, domain.ErrUnsupportedInteraction), errors.Is(err, domain.ErrMissingCommandData):
			l.Warn().Err(err).Str("interactionId", interaction.ID).Msg("cannot dispatch interaction")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		default:
			l.Error().Err(err).Str("interactionId", interaction.ID).Msg("failed to dispatch interaction")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(discord.ToInteractionResponse(response)); err != nil {
		l.Error().Err(err).Str("interactionId", interaction.ID).Msg("failed to write interaction response")
	}
}
