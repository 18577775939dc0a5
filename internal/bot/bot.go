// Package bot connects the Telegram Bot API to the storefront conversation.
package bot

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Yulia51188/fish-house/internal/conversation"
	"github.com/Yulia51188/fish-house/internal/telegram"
)

const pollTimeout = 60

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	telegram.BotAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the main Telegram bot struct with DI
type Bot struct {
	api     API
	auth    *Auth
	sender  telegram.MessageSender
	pool    *Pool
	workers int
}

// Option configures the Bot.
type Option func(*Bot)

// WithAllowedUsers restricts the bot to the given usernames.
func WithAllowedUsers(users []string) Option {
	return func(b *Bot) {
		b.auth = NewAuth(users)
	}
}

// WithWorkers sets the number of dispatch workers.
func WithWorkers(n int) Option {
	return func(b *Bot) {
		b.workers = n
	}
}

// WithSender replaces the sender built on top of api.
func WithSender(s telegram.MessageSender) Option {
	return func(b *Bot) {
		b.sender = s
	}
}

// New creates a Bot that feeds updates from api into dispatcher.
func New(api API, dispatcher Dispatcher, opts ...Option) *Bot {
	b := &Bot{
		api:     api,
		auth:    NewAuth(nil),
		sender:  telegram.NewSender(api),
		workers: 1,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pool = NewPool(dispatcher, b.sender, b.workers)
	return b
}

// RegisterCommands registers bot commands with Telegram
func (b *Bot) RegisterCommands() error {
	commands := []tgbotapi.BotCommand{
		{Command: conversation.ResetCommand, Description: "Open the store menu"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	_, err := b.api.Request(cfg)
	if err != nil {
		return err
	}

	slog.Info("Registered bot commands", "count", len(commands))
	return nil
}

// Run polls for updates and dispatches them until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.pool.Run(ctx)
	})
	g.Go(func() error {
		defer b.pool.Close()
		return b.poll(ctx)
	})
	return g.Wait()
}

func (b *Bot) poll(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	slog.Info("Bot started, waiting for messages", "workers", b.workers)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down bot")
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				slog.Warn("Updates channel closed, stopping bot")
				return nil
			}
			if err := b.handleUpdate(ctx, update); err != nil {
				return nil
			}
		}
	}
}

// handleUpdate authorizes and translates an update and queues it. The only
// error returned is the context's.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	// Skip updates without sender (channel posts, service messages)
	from := updateFrom(update)
	if from == nil {
		return nil
	}

	ev, callbackID, err := EventFromUpdate(update)
	if !b.auth.IsAuthorized(from.UserName) {
		slog.Warn("Unauthorized access attempt", "username", from.UserName)
		switch {
		case callbackID != "":
			_ = b.sender.AckCallback(callbackID, "Access denied")
		case err == nil:
			_ = b.sender.Send(ev.ChatID, telegram.EscapeMarkdownV2("Access denied"))
		}
		return nil
	}
	if err != nil {
		slog.Debug("Update dropped", "update_id", update.UpdateID, "fault", string(conversation.FaultTransport), "error", err)
		if callbackID != "" {
			_ = b.sender.AckCallback(callbackID, "")
		}
		return nil
	}

	j := job{traceID: uuid.NewString(), event: ev, callbackID: callbackID}
	slog.Info("Update received",
		"trace_id", j.traceID,
		"chat_id", ev.ChatID,
		"kind", ev.Kind.String(),
		"data", ev.Data)

	if err := b.pool.Submit(ctx, j); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		slog.Warn("Failed to queue update", "trace_id", j.traceID, "error", err)
	}
	return nil
}
