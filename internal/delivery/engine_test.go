package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/postbot/internal/storage"
)

type sendCall struct {
	channelID int64
	photoRef  string
	caption   string
	formatted bool
}

type fakeSender struct {
	mu        sync.Mutex
	calls     []sendCall
	failFmt   error
	failPlain error
}

func (f *fakeSender) SendPhoto(_ context.Context, channelID int64, photoRef, caption string, formatted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{channelID, photoRef, caption, formatted})
	if formatted {
		return f.failFmt
	}
	return f.failPlain
}

type outcomes []Outcome

func (o *outcomes) Delivered(out Outcome) { *o = append(*o, out) }

var post = storage.Post{ID: 1, ChannelID: -1001, PhotoRef: "AgAD", Caption: "Hello", Time: "09:30"}

func TestDeliverFormatted(t *testing.T) {
	s := &fakeSender{}
	rec := &outcomes{}
	out, err := NewEngine(s, rec).Deliver(context.Background(), post)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFormatted, out)
	assert.Equal(t, []sendCall{{-1001, "AgAD", "*Hello*", true}}, s.calls)
	assert.Equal(t, outcomes{OutcomeFormatted}, *rec)
}

func TestDeliverFallsBackOnce(t *testing.T) {
	s := &fakeSender{failFmt: errors.New("telegram: Bad Request: can't parse entities (400)")}
	out, err := NewEngine(s, nil).Deliver(context.Background(), post)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, out)
	require.Len(t, s.calls, 2)
	assert.Equal(t, sendCall{-1001, "AgAD", "Hello", false}, s.calls[1])
}

func TestDeliverFallsBackOnTransientError(t *testing.T) {
	s := &fakeSender{failFmt: errors.New("connection reset")}
	out, err := NewEngine(s, nil).Deliver(context.Background(), post)

	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, out)
	assert.Len(t, s.calls, 2)
}

func TestDeliverDoubleFailure(t *testing.T) {
	fmtErr := errors.New("formatted failed")
	plainErr := errors.New("plain failed")
	s := &fakeSender{failFmt: fmtErr, failPlain: plainErr}
	rec := &outcomes{}

	out, err := NewEngine(s, rec).Deliver(context.Background(), post)
	assert.Equal(t, OutcomeFailed, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, fmtErr)
	assert.ErrorIs(t, err, plainErr)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, plainErr, derr.Plain)
	assert.Len(t, s.calls, 2, "exactly one retry")
	assert.Equal(t, outcomes{OutcomeFailed}, *rec)
}

func TestBold(t *testing.T) {
	assert.Equal(t, "", Bold(""))
	assert.Equal(t, "*a_b*", Bold("a_b"))
}

func TestIsFormattingRejection(t *testing.T) {
	assert.True(t, IsFormattingRejection(errors.New("telegram: Bad Request: can't parse entities: Can't find end of the entity starting at byte offset 3 (400)")))
	assert.True(t, IsFormattingRejection(ErrFormattingRejected))
	assert.False(t, IsFormattingRejection(errors.New("chat not found")))
	assert.False(t, IsFormattingRejection(nil))
}
