package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/postbot/core/telegram"
)

// MessageOptions holds the handlers for plain messages.
type MessageOptions struct {
	OnText  tele.HandlerFunc
	OnPhoto tele.HandlerFunc
	// UnknownCommand answers slash-prefixed text that matches no command.
	UnknownCommand tele.HandlerFunc
}

// MessageRoutes builds handlers for text and photo messages.
// Text matching a command alias runs that command.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}

		if strings.HasPrefix(text, "/") {
			if opts.UnknownCommand != nil {
				return handleWithSummary(c, "unknown_command", start, func() error {
					return opts.UnknownCommand(c)
				})
			}
			logSkip(c, "unknown_command", start)
			return nil
		}

		if opts.OnText != nil {
			return handleWithSummary(c, "text", start, func() error {
				return opts.OnText(c)
			})
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}
		logSkip(c, "unknown_text", start)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.OnPhoto == nil {
			logSkip(c, "photo", start)
			return nil
		}
		return handleWithSummary(c, "photo", start, func() error {
			return opts.OnPhoto(c)
		})
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: textHandler},
		{Endpoint: tele.OnPhoto, Handler: photoHandler},
	}
}
