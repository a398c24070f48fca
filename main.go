package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"releasebot/internal/adapters/fetcher"
	"releasebot/internal/adapters/generator"
	"releasebot/internal/adapters/handler"
	"releasebot/internal/adapters/metrics"
	"releasebot/internal/adapters/sender"
	"releasebot/internal/config"
	"releasebot/internal/core/domain/command"
	"releasebot/internal/core/port"
	"releasebot/internal/core/service"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout     = 30 * time.Second
	staleReportInterval = time.Minute
	publishTimeout      = 30 * time.Second
)

func main() {
	log.Info().Msg("starting releasebot...")

	config.SetDefaults()
	if err := config.ReadFile(); err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	observer := metrics.NewPrometheus()

	registry, err := command.NewRegistry(command.Catalog(cfg.OpenRouterModel)...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed building command registry")
	}

	discordClient, err := sender.NewDiscordSession(cfg.DiscordToken, cfg.GuildID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing discord client")
	}

	if cfg.RegisterCommands {
		if err := publishCommands(ctx, discordClient, registry); err != nil {
			log.Fatal().Err(err).Msg("failed registering commands with discord")
		}
	}

	tracker := service.NewTracker(observer, cfg.TokenTTL)

	state := port.State{
		Roles:    discordClient,
		Releases: fetcher.NewSpotify(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyAPIURL, cfg.SpotifyAccountsURL),
		Stats:    service.NewStats(tracker, registry),
	}

	if cfg.OpenRouterAPIKey != "" {
		state.Text = generator.NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterSystemPrompt, cfg.OpenRouterModel)
	} else {
		log.Warn().Msg("no openrouter api key configured, /ask will not work")
	}

	followUpOpts := []service.FollowUpOption{
		service.WithFollowUpObserver(observer),
		service.WithFollowUpErrorFooter(cfg.ErrorFooter),
	}

	if cfg.AlertTelegramToken != "" {
		b, err := bot.New(cfg.AlertTelegramToken, bot.WithSkipGetMe())
		if err != nil {
			log.Fatal().Err(err).Msg("failed initializing telegram bot")
		}
		followUpOpts = append(followUpOpts, service.WithAlerter(sender.NewTelegramAlerter(b, cfg.AlertChatID)))
	}

	followUp := service.NewFollowUp(discordClient, tracker, cfg.TokenTTL, followUpOpts...)

	dispatcher := service.NewDispatcher(registry, state, followUp, cfg.Deadline,
		service.WithObserver(observer),
		service.WithErrorFooter(cfg.ErrorFooter),
	)

	verifier, err := service.NewSignatureVerifier(cfg.PublicKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing signature verifier")
	}

	interactions := handler.NewInteraction(dispatcher, verifier,
		handler.WithMaxBodyBytes(cfg.MaxBodyBytes),
		handler.WithVerificationObserver(observer),
		handler.WithNotFoundFooter(cfg.ErrorFooter),
	)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler.NewRouter(interactions, observer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go tracker.ReportStale(ctx, staleReportInterval)

	go func() {
		log.Info().Str("listen", cfg.Listen).Strs("commands", registry.ListCommands()).Msg("bot listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}

	if err := tracker.Wait(shutdownCtx); err != nil {
		log.Warn().Int("inFlight", tracker.Len()).Msg("abandoning follow-ups still in flight")
	}

	log.Info().Msg("bye")
}

func publishCommands(ctx context.Context, publisher port.CommandPublisher, registry *command.Registry) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return publisher.PublishCommands(ctx, registry.Definitions())
}
