package service

import (
	"context"
	"errors"
	"fmt"
	"releasebot/internal/core/domain"
	"releasebot/internal/core/port"
	"runtime/debug"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDeadline leaves enough of the platform's 3 second window for the response to travel back.
const DefaultDeadline = 500 * time.Millisecond

var (
	ErrHandlerPanicked = errors.New("command handler panicked")
	ErrEmptyResponse   = errors.New("command handler returned no response")
)

// FollowUpDeliverer takes over a pending response once the dispatcher has acknowledged it with a deferred response.
type FollowUpDeliverer interface {
	Deliver(interaction *domain.Interaction, pending *PendingResponse)
}

type Dispatcher struct {
	router      port.CommandRouter
	state       port.State
	followUp    FollowUpDeliverer
	deadline    time.Duration
	observer    port.Observer
	errorFooter string
	now         func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithObserver(observer port.Observer) DispatcherOption {
	return func(d *Dispatcher) {
		if observer != nil {
			d.observer = observer
		}
	}
}

func WithErrorFooter(footer string) DispatcherOption {
	return func(d *Dispatcher) {
		d.errorFooter = footer
	}
}

func NewDispatcher(router port.CommandRouter, state port.State, followUp FollowUpDeliverer, deadline time.Duration,
	opts ...DispatcherOption) *Dispatcher {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}

	d := &Dispatcher{
		router:   router,
		state:    state,
		followUp: followUp,
		deadline: deadline,
		observer: NopObserver{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch answers an authenticated interaction. Pings are answered right away. Commands are routed and their
// handler races the deadline: if it finishes in time its response is returned, otherwise a deferred response is
// returned and the handler's eventual result is handed to the follow-up deliverer. The handler is never cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, interaction *domain.Interaction) (*domain.Response, error) {
	switch interaction.Kind {
	case domain.KindPing:
		d.observer.DispatchObserved("", port.OutcomePong)
		return domain.PongResponse(), nil
	case domain.KindCommand:
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedInteraction, interaction.Kind)
	}

	if interaction.Command == nil || interaction.Command.Name == "" {
		return nil, domain.ErrMissingCommandData
	}

	name := interaction.Command.Name

	cmd, ok := d.router.View().Lookup(name)
	if !ok {
		log.Warn().Str("command", name).Str("interactionId", interaction.ID).Msg("no handler for command")
		d.observer.DispatchObserved(name, port.OutcomeNotFound)
		return nil, &domain.CommandNotFoundError{Name: name}
	}

	l := log.With().
		Str("dispatchId", newDispatchID()).
		Str("interactionId", interaction.ID).
		Str("guildId", interaction.GuildID).
		Str("command", name).
		Logger()

	startedAt := interaction.ReceivedAt
	if startedAt.IsZero() {
		startedAt = d.now()
	}

	pending := NewPendingResponse(startedAt, d.deadline)
	d.invoke(context.WithoutCancel(l.WithContext(ctx)), cmd, interaction, pending, l)

	timer := time.NewTimer(pending.Deadline.Sub(d.now()))
	defer timer.Stop()

	select {
	case <-pending.Done():
		d.observer.DispatchObserved(name, port.OutcomeImmediate)

		response, err := pending.outcome()
		if err != nil {
			l.Error().Err(err).Msg("command failed")
			return domain.RenderError(name, err, d.errorFooter), nil
		}

		l.Debug().Msg("responding immediately")
		return response, nil
	case <-timer.C:
		d.observer.DispatchObserved(name, port.OutcomeDeferred)
		l.Debug().Dur("deadline", d.deadline).Msg("deadline reached, deferring response")

		if pending.handOff() {
			d.followUp.Deliver(interaction, pending)
		}

		return domain.DeferredResponse(), nil
	}
}

// invoke runs the handler on its own goroutine and resolves pending with its result, converting panics into
// errors.
func (d *Dispatcher) invoke(ctx context.Context, cmd port.Command, interaction *domain.Interaction,
	pending *PendingResponse, l zerolog.Logger) {
	name := cmd.GetCommand()

	go func() {
		var response *domain.Response
		var err error

		defer func() {
			if r := recover(); r != nil {
				l.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("command handler panicked")
				response, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
			}

			if err == nil && response == nil {
				err = ErrEmptyResponse
			}

			if response != nil && response.Kind == 0 {
				withKind := *response
				withKind.Kind = domain.ResponseChannelMessageWithSource
				response = &withKind
			}

			d.observer.HandlerCompleted(name, d.now().Sub(pending.StartedAt), err)
			pending.resolve(response, err)
		}()

		l.Info().Msg("handling command")
		response, err = cmd.Respond(ctx, d.state, interaction)
	}()
}

func newDispatchID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}

	return id.String()
}
