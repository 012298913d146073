// Package delivery publishes scheduled posts with a plain-text fallback.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/sender"
	"github.com/m3rciful/postbot/internal/storage"
)

// ErrFormattingRejected marks a send rejected because of caption markup.
// It is informational: the retry happens for any failure.
var ErrFormattingRejected = errors.New("delivery: formatting rejected")

// Outcome reports how a post was delivered.
type Outcome string

const (
	OutcomeFormatted Outcome = "formatted"
	OutcomeFallback  Outcome = "fallback"
	OutcomeFailed    Outcome = "failed"
)

// Sender posts a photo to a channel. When formatted is true the caption is Markdown.
type Sender interface {
	SendPhoto(ctx context.Context, channelID int64, photoRef, caption string, formatted bool) error
}

// Recorder observes delivery outcomes.
type Recorder interface {
	Delivered(outcome Outcome)
}

// Error is returned when both attempts failed.
type Error struct {
	Formatted error
	Plain     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery: formatted: %v; plain: %v", e.Formatted, e.Plain)
}

// Unwrap exposes both attempt errors to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Formatted, e.Plain}
}

// Bold wraps caption in Markdown bold. An empty caption stays empty.
func Bold(caption string) string {
	if caption == "" {
		return ""
	}
	return "*" + caption + "*"
}

// TwoTier runs formatted and, on any failure, plain exactly once.
func TwoTier(ctx context.Context, formatted, plain func(context.Context) error) (Outcome, error) {
	ferr := formatted(ctx)
	if ferr == nil {
		return OutcomeFormatted, nil
	}
	perr := plain(ctx)
	if perr == nil {
		return OutcomeFallback, ferr
	}
	return OutcomeFailed, &Error{Formatted: ferr, Plain: perr}
}

// Engine delivers one post at a time. It never modifies the store.
type Engine struct {
	sender Sender
	rec    Recorder
}

// NewEngine builds an Engine. rec may be nil.
func NewEngine(s Sender, rec Recorder) *Engine {
	return &Engine{sender: s, rec: rec}
}

// Deliver sends p with a bold caption, then once more with the raw caption
// when the first attempt fails. The returned error is nil unless both failed.
func (e *Engine) Deliver(ctx context.Context, p storage.Post) (Outcome, error) {
	start := time.Now()
	outcome, err := TwoTier(ctx,
		func(ctx context.Context) error {
			return e.sender.SendPhoto(ctx, p.ChannelID, p.PhotoRef, Bold(p.Caption), true)
		},
		func(ctx context.Context) error {
			return e.sender.SendPhoto(ctx, p.ChannelID, p.PhotoRef, p.Caption, false)
		},
	)
	if e.rec != nil {
		e.rec.Delivered(outcome)
	}

	attrs := []slog.Attr{
		slog.String("outcome", string(outcome)),
		slog.Int64("post_id", p.ID),
		slog.Int64("channel_id", p.ChannelID),
		slog.String("time_of_day", p.Time),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	switch outcome {
	case OutcomeFormatted:
		logger.LogEvent(ctx, logger.DLV, slog.LevelInfo, "deliver.done", append(attrs, slog.String("status", "ok"))...)
		return outcome, nil
	case OutcomeFallback:
		logger.LogEvent(ctx, logger.DLV, slog.LevelWarn, "deliver.fallback", append(attrs,
			slog.String("status", "ok"),
			slog.String("err", sender.SanitizeError(err)),
			slog.String("err_code", errorCode(err)),
		)...)
		return outcome, nil
	}
	logger.LogEvent(ctx, logger.DLV, slog.LevelError, "deliver.fail", append(attrs,
		slog.String("status", "fail"),
		slog.String("err", sender.SanitizeError(err)),
		slog.String("err_code", errorCode(err)),
	)...)
	return outcome, err
}

// IsFormattingRejection reports whether err is the platform refusing caption markup.
func IsFormattingRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFormattingRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") || strings.Contains(msg, "can't find end of the entity")
}

func errorCode(err error) string {
	var derr *Error
	if errors.As(err, &derr) {
		err = derr.Formatted
	}
	if IsFormattingRejection(err) {
		return "markup"
	}
	return sender.ClassifyError(err)
}
