package config

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"releasebot/internal/core/service"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "RELEASEBOT"

	// the platform drops interactions that are not answered within 3 seconds
	maxDeadline = 3 * time.Second
)

var (
	ErrMissingPublicKey = errors.New("discord.public_key is required")
	ErrInvalidDeadline  = errors.New("dispatch.deadline must be above 0 and below 3s")
	ErrInvalidTokenTTL  = errors.New("dispatch.token_ttl must be positive")
	ErrMissingToken     = errors.New("discord.token is required to register commands")
)

type Config struct {
	LogLevel zerolog.Level

	Listen       string
	MaxBodyBytes int64

	DiscordToken     string
	PublicKey        ed25519.PublicKey
	RegisterCommands bool
	GuildID          string

	Deadline    time.Duration
	TokenTTL    time.Duration
	ErrorFooter string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyAPIURL       string
	SpotifyAccountsURL  string

	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterSystemPrompt string

	AlertTelegramToken string
	AlertChatID        int64
}

// SetDefaults registers defaults for every optional key and enables environment overrides,
// e.g. RELEASEBOT_DISCORD_PUBLIC_KEY for discord.public_key.
func SetDefaults() {
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("server.listen", "127.0.0.1:8080")
	viper.SetDefault("server.max_body_bytes", 1<<20)
	viper.SetDefault("discord.register_commands", true)
	viper.SetDefault("dispatch.deadline", service.DefaultDeadline.String())
	viper.SetDefault("dispatch.token_ttl", service.DefaultTokenTTL.String())
	viper.SetDefault("dispatch.error_footer", "Please report this to the bot maintainers!")
	viper.SetDefault("openrouter.model", "openai/gpt-4.1-mini")
	viper.SetDefault("openrouter.system_prompt", "You are a helpful assistant in a music community's Discord server.")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// ReadFile reads config.toml from the working directory. A missing file is not an error, every key can be set
// through the environment.
func ReadFile() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")

	err := viper.ReadInConfig()
	if err == nil {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("read config file")
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Info().Msg("no config file found, using environment and defaults")
		return nil
	}

	return fmt.Errorf("could not read config file: %w", err)
}

// Load validates the current configuration.
func Load() (Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("bot.log_level")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	rawKey := viper.GetString("discord.public_key")
	if rawKey == "" {
		return Config{}, ErrMissingPublicKey
	}

	publicKey, err := service.ParsePublicKey(rawKey)
	if err != nil {
		return Config{}, fmt.Errorf("invalid discord.public_key: %w", err)
	}

	deadline, err := time.ParseDuration(viper.GetString("dispatch.deadline"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidDeadline, err)
	}
	if deadline <= 0 || deadline >= maxDeadline {
		return Config{}, fmt.Errorf("%w: got %s", ErrInvalidDeadline, deadline)
	}

	tokenTTL, err := time.ParseDuration(viper.GetString("dispatch.token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidTokenTTL, err)
	}
	if tokenTTL <= 0 {
		return Config{}, fmt.Errorf("%w: got %s", ErrInvalidTokenTTL, tokenTTL)
	}

	cfg := Config{
		LogLevel:               level,
		Listen:                 viper.GetString("server.listen"),
		MaxBodyBytes:           viper.GetInt64("server.max_body_bytes"),
		DiscordToken:           viper.GetString("discord.token"),
		PublicKey:              publicKey,
		RegisterCommands:       viper.GetBool("discord.register_commands"),
		GuildID:                viper.GetString("discord.guild_id"),
		Deadline:               deadline,
		TokenTTL:               tokenTTL,
		ErrorFooter:            viper.GetString("dispatch.error_footer"),
		SpotifyClientID:        viper.GetString("spotify.client_id"),
		SpotifyClientSecret:    viper.GetString("spotify.client_secret"),
		SpotifyAPIURL:          viper.GetString("spotify.api_url"),
		SpotifyAccountsURL:     viper.GetString("spotify.accounts_url"),
		OpenRouterAPIKey:       viper.GetString("openrouter.api_key"),
		OpenRouterModel:        viper.GetString("openrouter.model"),
		OpenRouterSystemPrompt: viper.GetString("openrouter.system_prompt"),
		AlertTelegramToken:     viper.GetString("alert.telegram_token"),
		AlertChatID:            viper.GetInt64("alert.chat_id"),
	}

	if cfg.RegisterCommands && cfg.DiscordToken == "" {
		return Config{}, ErrMissingToken
	}

	return cfg, nil
}
