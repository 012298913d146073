// Package bot adapts the Telegram Bot API to the conversation flow and the
// delivery engine.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/delivery"
	"github.com/m3rciful/postbot/internal/flow"
	"github.com/m3rciful/postbot/internal/storage"
)

// API is the subset of *tele.Bot used by Client.
type API interface {
	ChatByUsername(name string) (*tele.Chat, error)
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Client resolves channels and posts photos on behalf of the bot account.
type Client struct {
	api API
	me  *tele.User
}

// NewClient wraps an initialized bot.
func NewClient(b *tele.Bot) *Client {
	return &Client{api: b, me: b.Me}
}

// ResolveChannel looks up a public handle and checks the bot may post there.
func (c *Client) ResolveChannel(ctx context.Context, handle string) (storage.Channel, error) {
	if err := ctx.Err(); err != nil {
		return storage.Channel{}, err
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return storage.Channel{}, fmt.Errorf("%w: empty handle", flow.ErrResolve)
	}
	if !strings.HasPrefix(handle, "@") && !isNumericID(handle) {
		handle = "@" + handle
	}

	chat, err := c.api.ChatByUsername(handle)
	if err != nil {
		return storage.Channel{}, fmt.Errorf("%w: %s: %w", flow.ErrResolve, handle, err)
	}
	member, err := c.api.ChatMemberOf(chat, c.me)
	if err != nil {
		return storage.Channel{}, fmt.Errorf("%w: membership of %s: %w", flow.ErrResolve, handle, err)
	}
	if member.Role != tele.Administrator && member.Role != tele.Creator {
		return storage.Channel{}, fmt.Errorf("%w: bot is %q in %s", flow.ErrResolve, member.Role, handle)
	}

	name := strings.TrimSpace(chat.Title)
	if name == "" {
		name = "@" + chat.Username
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "channel.resolved",
		slog.Int64("channel_id", chat.ID),
		slog.String("role", string(member.Role)),
	)
	return storage.Channel{ID: chat.ID, Name: name}, nil
}

// SendPhoto posts a photo by file id. A Markdown rejection is marked with
// delivery.ErrFormattingRejected.
func (c *Client) SendPhoto(ctx context.Context, channelID int64, photoRef, caption string, formatted bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &tele.SendOptions{}
	if formatted {
		opts.ParseMode = tele.ModeMarkdown
	}
	photo := &tele.Photo{File: tele.File{FileID: photoRef}, Caption: caption}
	if _, err := c.api.Send(tele.ChatID(channelID), photo, opts); err != nil {
		if formatted && delivery.IsFormattingRejection(err) {
			return fmt.Errorf("%w: %w", delivery.ErrFormattingRejected, err)
		}
		return fmt.Errorf("bot: send photo to %d: %w", channelID, err)
	}
	return nil
}

func isNumericID(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
