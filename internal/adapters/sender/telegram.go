package sender

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// TelegramMessageLimit is the maximum length of a Telegram message in bytes.
const TelegramMessageLimit = 4096

var ErrNoAlertChat = errors.New("no telegram chat configured for alerts")

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramAlerter posts operational alerts into a single Telegram chat.
type TelegramAlerter struct {
	bot    TelegramBot
	chatID int64
}

func NewTelegramAlerter(bot TelegramBot, chatID int64) *TelegramAlerter {
	return &TelegramAlerter{bot: bot, chatID: chatID}
}

func (s *TelegramAlerter) Alert(ctx context.Context, text string) error {
	if s.chatID == 0 {
		return ErrNoAlertChat
	}

	for _, chunk := range chunkText(text, TelegramMessageLimit) {
		_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: s.chatID,
			Text:   chunk,
		})
		if err != nil {
			log.Error().Err(err).Int64("chatId", s.chatID).Msg("failed to send alert")
			return fmt.Errorf("sending alert: %w", err)
		}
	}

	return nil
}

// chunkText splits text into pieces of at most limit bytes without cutting runes apart.
func chunkText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}

	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}
