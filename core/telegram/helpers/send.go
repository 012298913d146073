package helpers

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/postbot/core/logger"
)

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return send(c, "send.text", text, &tele.SendOptions{ReplyMarkup: first(markup)})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return send(c, "send.md", text, &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: first(markup)})
}

// EditOrSendText edits the message behind a callback or sends a new one.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: first(markup)}
	if c.Callback() == nil || c.Callback().Message == nil {
		return send(c, "send.text", text, opts)
	}
	if err := c.Edit(text, opts); err != nil {
		logger.Debug(BuildContext(c), "tg", "edit.fallback", slog.String("err", err.Error()))
		return send(c, "send.text", text, opts)
	}
	return nil
}

// SendPhoto sends a photo by file id. parseMode may be empty for plain captions.
func SendPhoto(c tele.Context, fileID, caption string, parseMode tele.ParseMode, markup ...*tele.ReplyMarkup) error {
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	return send(c, "send.photo", photo, &tele.SendOptions{ParseMode: parseMode, ReplyMarkup: first(markup)})
}

// DeleteCallbackMessage removes the message that carried the pressed button.
func DeleteCallbackMessage(c tele.Context) {
	if cb := c.Callback(); cb == nil || cb.Message == nil {
		return
	}
	if err := c.Delete(); err != nil {
		logger.Debug(BuildContext(c), "tg", "delete.fail", slog.String("err", err.Error()))
	}
}

func send(c tele.Context, action string, what interface{}, opts *tele.SendOptions) error {
	if err := c.Send(what, opts); err != nil {
		logger.Warn(BuildContext(c), "tg", "send.fail",
			slog.String("action", action),
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return err
	}
	return nil
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}
