package bot

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/postbot/core/logger"
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/keyboard"
	"github.com/m3rciful/postbot/internal/delivery"
	"github.com/m3rciful/postbot/internal/flow"
)

const (
	textGreeting      = "💎 *Auto-Post Bot Active*\n\nFeatures: %s time, edit/delete, safe Markdown."
	textGreetingPlain = "💎 Auto-Post Bot Active\n\nFeatures: %s time, edit/delete, safe Markdown."
	textMainMenu      = "Main Menu:"
	textSelectChannel = "Select Channel:"
	textChannelMenu   = "Channel Management:\nID: %d"
	textNoPosts       = "No posts in this channel."
	textPostList      = "Scheduled Posts (Time %s):"
	textCancelled     = "Cancelled."
	textFailed        = "⚠️ Something went wrong, please try again."

	previewFormatted = "⏰ *Time:* %s\n\n📝 *Caption:* %s"
	previewPlain     = "⏰ Time: %s\n\n📝 Caption: %s"
)

func mainMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		button("➕ Add Channel", flow.AddChannel{}),
		button("📋 My Channels", flow.ListChannels{}),
	})
}

func back(a flow.Action) keyboard.InlineBtn {
	return button("🔙 Back", a)
}

// greeting sends the /start message with the main menu. The zone label is
// operator config, so a label Markdown rejects falls back to plain text.
func (r renderer) greeting(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	outcome, err := delivery.TwoTier(ctx,
		func(context.Context) error {
			return tghelpers.SendMD(c, fmt.Sprintf(textGreeting, r.zone), mainMenuKeyboard())
		},
		func(context.Context) error {
			return tghelpers.SendText(c, fmt.Sprintf(textGreetingPlain, r.zone), mainMenuKeyboard())
		},
	)
	if outcome == delivery.OutcomeFallback {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "greeting.fallback",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil
	}
	return err
}

// renderer turns a flow.View into Telegram messages.
type renderer struct {
	zone string
}

func (r renderer) render(c tele.Context, v flow.View) error {
	switch v.Kind {
	case flow.ViewNone:
		return nil

	case flow.ViewNotice:
		return tghelpers.SendText(c, v.Notice)

	case flow.ViewPrompt:
		return tghelpers.EditOrSendText(c, v.Notice)

	case flow.ViewMainMenu:
		text := v.Notice
		if text == "" {
			text = textMainMenu
		}
		return tghelpers.EditOrSendText(c, text, mainMenuKeyboard())

	case flow.ViewChannelList:
		btns := make([]keyboard.InlineBtn, 0, len(v.Channels)+1)
		for _, ch := range v.Channels {
			btns = append(btns, button(ch.Name, flow.ManageChannel{ChannelID: ch.ID}))
		}
		btns = append(btns, back(flow.MainMenu{}))
		return tghelpers.EditOrSendText(c, textSelectChannel, keyboard.InlineButtons(btns))

	case flow.ViewChannelMenu:
		kb := keyboard.InlineButtons([]keyboard.InlineBtn{
			button("➕ Add New Post", flow.NewPost{}),
			button("📅 View/Delete Posts", flow.ViewPosts{ChannelID: v.ChannelID}),
			back(flow.ListChannels{}),
		})
		return tghelpers.EditOrSendText(c, fmt.Sprintf(textChannelMenu, v.ChannelID), kb)

	case flow.ViewPostList:
		if len(v.Posts) == 0 {
			kb := keyboard.InlineButtons([]keyboard.InlineBtn{back(flow.ManageChannel{ChannelID: v.ChannelID})})
			return tghelpers.EditOrSendText(c, textNoPosts, kb)
		}
		btns := make([]keyboard.InlineBtn, 0, len(v.Posts)+1)
		for _, p := range v.Posts {
			btns = append(btns, button("⏰ "+p.Time, flow.PostDetails{PostID: p.ID}))
		}
		btns = append(btns, back(flow.ManageChannel{ChannelID: v.ChannelID}))
		return tghelpers.EditOrSendText(c, fmt.Sprintf(textPostList, r.zone), keyboard.InlineButtons(btns))

	case flow.ViewPostDetails:
		return r.preview(c, v)
	}
	return fmt.Errorf("bot: unknown view %s", v.Kind)
}

// preview replaces the menu message with the post photo. A caption Markdown
// cannot carry is sent again as plain text.
func (r renderer) preview(c tele.Context, v flow.View) error {
	p := v.Post
	kb := keyboard.InlineButtons([]keyboard.InlineBtn{
		button("📝 Edit Caption", flow.EditCaption{PostID: p.ID}),
		button("🗑 Delete Post", flow.DeletePost{PostID: p.ID}),
		back(flow.ViewPosts{ChannelID: p.ChannelID}),
	})

	tghelpers.DeleteCallbackMessage(c)
	ctx := tghelpers.BuildContext(c)
	outcome, err := delivery.TwoTier(ctx,
		func(context.Context) error {
			return tghelpers.SendPhoto(c, p.PhotoRef, fmt.Sprintf(previewFormatted, p.Time, p.Caption), tele.ModeMarkdown, kb)
		},
		func(context.Context) error {
			return tghelpers.SendPhoto(c, p.PhotoRef, fmt.Sprintf(previewPlain, p.Time, p.Caption), "", kb)
		},
	)
	if outcome == delivery.OutcomeFallback {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "preview.fallback",
			slog.Int64("post_id", p.ID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil
	}
	return err
}
