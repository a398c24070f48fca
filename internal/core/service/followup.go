package service

import (
	"context"
	"fmt"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTokenTTL is how long the platform accepts edits to an interaction's original response.
	DefaultTokenTTL = 15 * time.Minute
	sendTimeout     = 10 * time.Second
)

const alertTemplate = "failed to deliver the follow-up for /%s (interaction %s): %s"

// FollowUp waits for a deferred handler in the background and edits the deferred response with its result.
type FollowUp struct {
	sender      port.FollowUpSender
	alerter     port.Alerter
	tracker     *Tracker
	observer    port.Observer
	tokenTTL    time.Duration
	errorFooter string
	now         func() time.Time
}

type FollowUpOption func(*FollowUp)

func WithAlerter(alerter port.Alerter) FollowUpOption {
	return func(f *FollowUp) {
		f.alerter = alerter
	}
}

func WithFollowUpObserver(observer port.Observer) FollowUpOption {
	return func(f *FollowUp) {
		if observer != nil {
			f.observer = observer
		}
	}
}

func WithFollowUpErrorFooter(footer string) FollowUpOption {
	return func(f *FollowUp) {
		f.errorFooter = footer
	}
}

func NewFollowUp(sender port.FollowUpSender, tracker *Tracker, tokenTTL time.Duration, opts ...FollowUpOption) *FollowUp {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	f := &FollowUp{
		sender:   sender,
		tracker:  tracker,
		observer: NopObserver{},
		tokenTTL: tokenTTL,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Deliver takes ownership of pending and returns immediately. The single update call happens once the handler
// resolves.
func (f *FollowUp) Deliver(interaction *domain.Interaction, pending *PendingResponse) {
	if !f.tracker.Add(interaction.ID) {
		log.Warn().Str("interactionId", interaction.ID).Msg("shutting down, delivering follow-up untracked")
	}

	go func() {
		defer f.tracker.Done(interaction.ID)
		f.deliver(interaction, pending)
	}()
}

func (f *FollowUp) deliver(interaction *domain.Interaction, pending *PendingResponse) {
	name := ""
	if interaction.Command != nil {
		name = interaction.Command.Name
	}

	l := log.With().
		Str("interactionId", interaction.ID).
		Str("command", name).
		Logger()

	response, err := pending.outcome()
	if err != nil {
		l.Error().Err(err).Msg("command failed after deferring")
		response = domain.RenderError(name, err, f.errorFooter)
	}

	elapsed := f.now().Sub(pending.StartedAt)
	if elapsed > f.tokenTTL {
		l.Warn().Dur("elapsed", elapsed).Msg("interaction token expired, dropping follow-up")
		f.observer.FollowUpObserved(port.OutcomeExpired)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err = f.sender.UpdateResponse(ctx, interaction, response)
	if err != nil {
		l.Error().Err(err).Msg(domain.ErrSendingFollowUpFailed.Error())
		f.observer.FollowUpObserved(port.OutcomeFailed)
		f.alert(l, fmt.Sprintf(alertTemplate, name, interaction.ID, err))
		return
	}

	l.Debug().Dur("elapsed", elapsed).Msg("follow-up delivered")
	f.observer.FollowUpObserved(port.OutcomeDelivered)
}

func (f *FollowUp) alert(l zerolog.Logger, text string) {
	if f.alerter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := f.alerter.Alert(ctx, text); err != nil {
		l.Warn().Err(err).Msg("failed to send delivery failure alert")
	}
}
