package bot

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/postbot/core/logger"
	tg "github.com/m3rciful/postbot/core/telegram"
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/router"
	"github.com/m3rciful/postbot/internal/flow"
)

// Machine is the conversation the handlers drive. *flow.Machine satisfies it.
type Machine interface {
	OnButton(ctx context.Context, operatorID int64, action flow.Action) (flow.View, error)
	OnText(ctx context.Context, operatorID int64, text string) (flow.View, error)
	OnPhoto(ctx context.Context, operatorID int64, photoRef, caption string) (flow.View, error)
	Reset(operatorID int64)
}

// Handlers binds Telegram updates to a Machine.
type Handlers struct {
	machine Machine
	view    renderer
}

// NewHandlers builds handlers. zone labels times in greetings and lists.
func NewHandlers(m Machine, zone string) *Handlers {
	return &Handlers{machine: m, view: renderer{zone: zone}}
}

// Register adds the commands and one callback per action key to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	if err := reg.RegisterCommand("/start", tg.Command{Handler: h.start, Description: "Main menu"}); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	if err := reg.RegisterCommand("/cancel", tg.Command{Handler: h.cancel, Description: "Cancel the current step"}); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	for key := range actions {
		if err := reg.RegisterCallback(key, h.button); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return h.view.render(c, flow.View{Kind: flow.ViewMainMenu})
	})
	return nil
}

// Routes returns every route the bot serves. Register must run first.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return append(routes, router.MessageRoutes(reg, router.MessageOptions{
		OnText:  h.text,
		OnPhoto: h.photo,
	})...)
}

func (h *Handlers) start(c tele.Context) error {
	if u := c.Sender(); u != nil {
		h.machine.Reset(u.ID)
	}
	return h.view.greeting(c)
}

func (h *Handlers) cancel(c tele.Context) error {
	if u := c.Sender(); u != nil {
		h.machine.Reset(u.ID)
	}
	return h.view.render(c, flow.View{Kind: flow.ViewMainMenu, Notice: textCancelled})
}

func (h *Handlers) button(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	action, err := actions.Decode(c)
	if err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "callback.decode",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return h.view.render(c, flow.View{Kind: flow.ViewMainMenu})
	}
	v, err := h.machine.OnButton(ctx, u.ID, action)
	return h.show(ctx, c, v, err)
}

func (h *Handlers) text(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	v, err := h.machine.OnText(ctx, u.ID, c.Text())
	return h.show(ctx, c, v, err)
}

func (h *Handlers) photo(c tele.Context) error {
	u, msg := c.Sender(), c.Message()
	if u == nil || msg == nil || msg.Photo == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	v, err := h.machine.OnPhoto(ctx, u.ID, msg.Photo.FileID, msg.Caption)
	return h.show(ctx, c, v, err)
}

// show renders v, or a generic notice with the main menu when the flow failed.
func (h *Handlers) show(ctx context.Context, c tele.Context, v flow.View, err error) error {
	if err != nil {
		logger.LogEvent(ctx, logger.FLOW, slog.LevelError, "flow.fail",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return h.view.render(c, flow.View{Kind: flow.ViewMainMenu, Notice: textFailed})
	}
	return h.view.render(c, v)
}
