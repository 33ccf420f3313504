// Package gateway is the thin delivery layer over the Telegram Bot API.
// Every failure is logged here and also returned, so callers can branch on
// it without having to log it again.
package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-tip-tracker/internal/metrics"
)

type Gateway struct {
	Bot *tgbotapi.BotAPI
}

// New connects to the Bot API. An empty endpoint means api.telegram.org.
func New(token, endpoint string) (*Gateway, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	log.Printf("authorized as @%s", bot.Self.UserName)
	return &Gateway{Bot: bot}, nil
}

func failed(op string, chatID int64, err error) error {
	metrics.DeliveryFailures.WithLabelValues(op).Inc()
	log.Printf("%s: chat=%d: %v", op, chatID, err)
	return err
}

// Send posts a message and returns its id. A nil keyboard sends none.
func (g *Gateway) Send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := g.Bot.Send(msg)
	if err != nil {
		return 0, failed("send", chatID, err)
	}
	return sent.MessageID, nil
}

func (g *Gateway) Edit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if kb != nil {
		edit.ReplyMarkup = kb
	}
	if _, err := g.Bot.Request(edit); err != nil {
		return failed("edit", chatID, err)
	}
	return nil
}

func (g *Gateway) Delete(chatID int64, messageID int) error {
	if _, err := g.Bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return failed("delete", chatID, err)
	}
	return nil
}

func (g *Gateway) Pin(chatID int64, messageID int) error {
	pin := tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	}
	if _, err := g.Bot.Request(pin); err != nil {
		return failed("pin", chatID, err)
	}
	return nil
}

func (g *Gateway) AnswerCallback(callbackID, text string) error {
	if _, err := g.Bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return failed("answer_callback", 0, err)
	}
	return nil
}

// SetWebhook points Telegram at url.
func (g *Gateway) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}
	if _, err := g.Bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook is required before long polling.
func (g *Gateway) DeleteWebhook() error {
	if _, err := g.Bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// Poll delivers long-polling updates to fn until ctx is done. Each update
// runs on its own goroutine; Poll returns only after all of them finished.
func (g *Gateway) Poll(ctx context.Context, fn func(tgbotapi.Update)) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	var wg sync.WaitGroup
	defer wg.Wait()

	updates := g.Bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			g.Bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				fn(upd)
			}()
		}
	}
}
