// Package flow implements the operator conversation for registering channels
// and managing scheduled posts.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/clock"
	"github.com/m3rciful/postbot/internal/storage"
)

// ErrResolve is returned by a Resolver when a handle does not name a channel
// the bot administers.
var ErrResolve = errors.New("flow: channel not resolvable")

// Store is the persistence the machine needs.
type Store interface {
	UpsertChannel(ctx context.Context, id int64, name string) error
	ListChannels(ctx context.Context) ([]storage.Channel, error)
	CreatePost(ctx context.Context, np storage.NewPost) (int64, error)
	ListPosts(ctx context.Context, channelID int64) ([]storage.PostSummary, error)
	GetPost(ctx context.Context, id int64) (*storage.Post, error)
	UpdateCaption(ctx context.Context, id int64, caption string) error
	DeletePost(ctx context.Context, id int64) error
}

// Resolver turns a public channel handle into a channel the bot can post to.
type Resolver interface {
	ResolveChannel(ctx context.Context, handle string) (storage.Channel, error)
}

// Recorder is notified when a flow finishes with a write.
type Recorder interface {
	FlowCompleted(flow string)
}

// Operator-facing texts.
const (
	TextAddChannel     = "📩 Send the channel @username (the bot must be an admin there):"
	TextChannelAdded   = "✅ Added: %s"
	TextResolveFailed  = "❌ Error: the channel @username is wrong or the bot is not an admin."
	TextNoChannels     = "❌ No channels found."
	TextPickChannel    = "Open a channel first, then add a post."
	TextSendPhoto      = "📸 Send a photo (with caption):"
	TextAskTime        = "⏰ When should it be posted? (HH:MM%s, e.g. 14:30):"
	TextScheduled      = "✅ Scheduled for %s%s!"
	TextBadTime        = "❌ Wrong format! Use HH:MM (e.g. 17:30)"
	TextAskCaption     = "Send the new caption:"
	TextCaptionUpdated = "✅ Caption updated!"
	TextPostDeleted    = "✅ Post deleted."
	TextPostNotFound   = "❌ Post not found."
)

// Option configures a Machine.
type Option func(*Machine)

// WithZoneLabel sets the zone name shown next to times, e.g. "IST".
func WithZoneLabel(label string) Option {
	return func(m *Machine) { m.zone = strings.TrimSpace(label) }
}

// WithRecorder attaches a completion recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Machine) { m.rec = r }
}

// WithSessions replaces the default in-memory session manager.
func WithSessions(s state.Manager[Session]) Option {
	return func(m *Machine) { m.sessions = s }
}

// Machine holds one Session per operator and applies transitions.
type Machine struct {
	store    Store
	resolver Resolver
	sessions state.Manager[Session]
	zone     string
	rec      Recorder
}

// New builds a Machine with in-memory sessions.
func New(store Store, resolver Resolver, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		resolver: resolver,
		sessions: state.NewMemoryManager[Session](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step reports the operator's current step.
func (m *Machine) Step(operatorID int64) Step {
	s, _ := m.sessions.Get(operatorID)
	return s.Step()
}

// ActiveChannel reports the channel the operator manages, 0 when none.
func (m *Machine) ActiveChannel(operatorID int64) int64 {
	s, _ := m.sessions.Get(operatorID)
	return s.ActiveChannelID
}

// Reset drops any pending input. The active channel is kept; a session
// with nothing left to keep is removed.
func (m *Machine) Reset(operatorID int64) {
	if s, ok := m.sessions.Get(operatorID); ok && s.ActiveChannelID == 0 {
		m.sessions.Clear(operatorID)
		return
	}
	m.setPending(operatorID, nil)
}

// Sessions returns the number of operators holding a session.
func (m *Machine) Sessions() int {
	return m.sessions.Len()
}

// OnButton applies a button action.
func (m *Machine) OnButton(ctx context.Context, operatorID int64, action Action) (View, error) {
	m.trace(ctx, operatorID, "button", action.Name())

	switch a := action.(type) {
	case MainMenu:
		return mainMenu(""), nil

	case AddChannel:
		m.setPending(operatorID, awaitChannel{})
		return prompt(TextAddChannel), nil

	case ListChannels:
		channels, err := m.store.ListChannels(ctx)
		if err != nil {
			return View{}, fmt.Errorf("flow: list channels: %w", err)
		}
		if len(channels) == 0 {
			return mainMenu(TextNoChannels), nil
		}
		return View{Kind: ViewChannelList, Channels: channels}, nil

	case ManageChannel:
		m.sessions.Update(operatorID, func(s Session) Session {
			s.ActiveChannelID = a.ChannelID
			return s
		})
		return View{Kind: ViewChannelMenu, ChannelID: a.ChannelID}, nil

	case NewPost:
		if m.ActiveChannel(operatorID) == 0 {
			return mainMenu(TextPickChannel), nil
		}
		m.setPending(operatorID, awaitPhoto{})
		return prompt(TextSendPhoto), nil

	case ViewPosts:
		posts, err := m.store.ListPosts(ctx, a.ChannelID)
		if err != nil {
			return View{}, fmt.Errorf("flow: list posts: %w", err)
		}
		return View{Kind: ViewPostList, ChannelID: a.ChannelID, Posts: posts}, nil

	case PostDetails:
		post, err := m.store.GetPost(ctx, a.PostID)
		if err != nil {
			return View{}, fmt.Errorf("flow: get post: %w", err)
		}
		if post == nil {
			return mainMenu(TextPostNotFound), nil
		}
		return View{Kind: ViewPostDetails, Post: post, ChannelID: post.ChannelID}, nil

	case EditCaption:
		m.setPending(operatorID, awaitCaption{PostID: a.PostID})
		return prompt(TextAskCaption), nil

	case DeletePost:
		if err := m.store.DeletePost(ctx, a.PostID); err != nil {
			return View{}, fmt.Errorf("flow: delete post: %w", err)
		}
		m.completed(ctx, "delete_post", slog.Int64("post_id", a.PostID))
		return mainMenu(TextPostDeleted), nil
	}
	return View{}, fmt.Errorf("flow: unknown action %T", action)
}

// OnText consumes a text message. The pending input is cleared before acting,
// so a rejected value ends the flow and the operator starts it again.
func (m *Machine) OnText(ctx context.Context, operatorID int64, text string) (View, error) {
	var pending Pending
	m.sessions.Update(operatorID, func(s Session) Session {
		pending = s.Pending
		s.Pending = nil
		return s
	})
	m.trace(ctx, operatorID, "text", "")

	switch p := pending.(type) {
	case awaitChannel:
		ch, err := m.resolver.ResolveChannel(ctx, strings.TrimSpace(text))
		if err != nil {
			logger.LogEvent(ctx, logger.FLOW, slog.LevelWarn, "channel.resolve",
				slog.String("status", "fail"),
				slog.String("handle", logger.SanitizeLimit(text, 64)),
				slog.String("err", err.Error()),
			)
			return notice(TextResolveFailed), nil
		}
		if err := m.store.UpsertChannel(ctx, ch.ID, ch.Name); err != nil {
			return View{}, fmt.Errorf("flow: register channel: %w", err)
		}
		m.completed(ctx, "add_channel", slog.Int64("channel_id", ch.ID))
		return mainMenu(fmt.Sprintf(TextChannelAdded, ch.Name)), nil

	case awaitTime:
		tod, err := clock.ParseTimeOfDay(text)
		if err != nil {
			return notice(TextBadTime), nil
		}
		channelID := m.ActiveChannel(operatorID)
		id, err := m.store.CreatePost(ctx, storage.NewPost{
			ChannelID: channelID,
			PhotoRef:  p.PhotoRef,
			Caption:   p.Caption,
			Time:      tod,
		})
		if err != nil {
			return View{}, fmt.Errorf("flow: create post: %w", err)
		}
		m.completed(ctx, "new_post",
			slog.Int64("post_id", id),
			slog.Int64("channel_id", channelID),
			slog.String("time_of_day", tod),
		)
		return mainMenu(fmt.Sprintf(TextScheduled, tod, m.zoneSuffix())), nil

	case awaitCaption:
		if err := m.store.UpdateCaption(ctx, p.PostID, text); err != nil {
			return View{}, fmt.Errorf("flow: update caption: %w", err)
		}
		m.completed(ctx, "edit_caption", slog.Int64("post_id", p.PostID))
		return mainMenu(TextCaptionUpdated), nil
	}
	return View{}, nil
}

// OnPhoto stages a photo when the operator is adding a post. Otherwise it is ignored.
func (m *Machine) OnPhoto(ctx context.Context, operatorID int64, photoRef, caption string) (View, error) {
	staged := false
	m.sessions.Update(operatorID, func(s Session) Session {
		if _, ok := s.Pending.(awaitPhoto); ok {
			s.Pending = awaitTime{PhotoRef: photoRef, Caption: caption}
			staged = true
		}
		return s
	})
	if !staged {
		m.trace(ctx, operatorID, "photo.ignored", "")
		return View{}, nil
	}
	m.trace(ctx, operatorID, "photo", "")
	return prompt(fmt.Sprintf(TextAskTime, m.zoneSuffix())), nil
}

func (m *Machine) zoneSuffix() string {
	if m.zone == "" {
		return ""
	}
	return " " + m.zone
}

func (m *Machine) setPending(operatorID int64, p Pending) {
	m.sessions.Update(operatorID, func(s Session) Session {
		s.Pending = p
		return s
	})
}

func (m *Machine) trace(ctx context.Context, operatorID int64, event, action string) {
	logger.LogEvent(ctx, logger.FLOW, slog.LevelDebug, event,
		slog.Int64("user_id", operatorID),
		slog.String("step", string(m.Step(operatorID))),
		slog.String("action", action),
	)
}

func (m *Machine) completed(ctx context.Context, flow string, attrs ...slog.Attr) {
	if m.rec != nil {
		m.rec.FlowCompleted(flow)
	}
	logger.LogEvent(ctx, logger.FLOW, slog.LevelInfo, "flow.done",
		append([]slog.Attr{slog.String("status", "ok"), slog.String("action", flow)}, attrs...)...)
}
