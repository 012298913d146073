package telegram

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	for name, cmd := range map[string]Command{
		"/start":  {Handler: noop, Description: "Main menu"},
		"/cancel": {Handler: noop, Description: "Cancel", Aliases: []string{"stop"}},
		"/debug":  {Handler: noop, Description: "Debug", Hidden: true},
	} {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	if err := reg.RegisterCommand("nodash", Command{Handler: noop, Description: "Skipped"}); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("name without slash: err = %v", err)
	}
	if err := reg.RegisterCommand("/start", Command{Handler: noop, Description: "Duplicate"}); err == nil {
		t.Fatalf("duplicate command must fail")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "/cancel" || visible[1].Text != "/start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if len(reg.ListCommands(false)) != 3 {
		t.Fatalf("all commands = %+v", reg.ListCommands(false))
	}
	if key, _, ok := reg.LookupCommand("/stop"); !ok || key != "/cancel" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if _, cmd, _ := reg.LookupCommand("start"); cmd.Description != "Main menu" {
		t.Fatalf("first registration must win, got %q", cmd.Description)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("view", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("view", noop); err == nil {
		t.Fatalf("duplicate registration must fail")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatalf("empty key must fail")
	}
	if _, ok := reg.GetCallback("view"); !ok {
		t.Fatalf("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "view" {
		t.Fatalf("ListCallbacks = %v", got)
	}
}

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 60}).(*tele.LongPoller)
	if !ok || lp.Timeout.Seconds() != maxLongPollSeconds {
		t.Fatalf("long poller = %+v", lp)
	}
	wh, ok := BuildPoller(PollerOptions{
		RunMode:     "webhook",
		DropPending: true,
		Webhook:     WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	}).(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" || !wh.DropUpdates {
		t.Fatalf("webhook = %+v", wh)
	}
}
