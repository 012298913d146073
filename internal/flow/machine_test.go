package flow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/postbot/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	channels map[int64]string
	posts    map[int64]storage.Post
	nextID   int64
	failWith error
}

func newMemStore() *memStore {
	return &memStore{channels: map[int64]string{}, posts: map[int64]storage.Post{}}
}

func (s *memStore) UpsertChannel(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.channels[id]; !ok {
		s.channels[id] = name
	}
	return nil
}

func (s *memStore) ListChannels(context.Context) ([]storage.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := []storage.Channel{}
	for id, name := range s.channels {
		out = append(out, storage.Channel{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) CreatePost(_ context.Context, np storage.NewPost) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	s.nextID++
	s.posts[s.nextID] = storage.Post{ID: s.nextID, ChannelID: np.ChannelID, PhotoRef: np.PhotoRef, Caption: np.Caption, Time: np.Time}
	return s.nextID, nil
}

func (s *memStore) ListPosts(_ context.Context, channelID int64) ([]storage.PostSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []storage.PostSummary{}
	for _, p := range s.posts {
		if p.ChannelID == channelID {
			out = append(out, storage.PostSummary{ID: p.ID, Time: p.Time})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetPost(_ context.Context, id int64) (*storage.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) UpdateCaption(_ context.Context, id int64, caption string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[id]; ok {
		p.Caption = caption
		s.posts[id] = p
	}
	return nil
}

func (s *memStore) DeletePost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
	return nil
}

type fakeResolver map[string]storage.Channel

func (r fakeResolver) ResolveChannel(_ context.Context, handle string) (storage.Channel, error) {
	ch, ok := r[handle]
	if !ok {
		return storage.Channel{}, ErrResolve
	}
	return ch, nil
}

type countRecorder struct{ flows []string }

func (c *countRecorder) FlowCompleted(flow string) { c.flows = append(c.flows, flow) }

const operator = int64(42)

func newTestMachine() (*Machine, *memStore, *countRecorder) {
	store := newMemStore()
	rec := &countRecorder{}
	resolver := fakeResolver{"@news": {ID: -1001, Name: "News"}}
	return New(store, resolver, WithZoneLabel("IST"), WithRecorder(rec)), store, rec
}

func TestAddChannelFlow(t *testing.T) {
	m, store, rec := newTestMachine()
	ctx := context.Background()

	v, err := m.OnButton(ctx, operator, AddChannel{})
	require.NoError(t, err)
	assert.Equal(t, ViewPrompt, v.Kind)
	assert.Equal(t, StepWaitChannel, m.Step(operator))

	v, err = m.OnText(ctx, operator, " @news ")
	require.NoError(t, err)
	assert.Equal(t, ViewMainMenu, v.Kind)
	assert.Equal(t, "✅ Added: News", v.Notice)
	assert.Equal(t, StepNone, m.Step(operator))
	assert.Equal(t, map[int64]string{-1001: "News"}, store.channels)
	assert.Equal(t, []string{"add_channel"}, rec.flows)
}

func TestAddChannelTwiceKeepsOneRow(t *testing.T) {
	m, store, _ := newTestMachine()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := m.OnButton(ctx, operator, AddChannel{})
		require.NoError(t, err)
		_, err = m.OnText(ctx, operator, "@news")
		require.NoError(t, err)
	}
	assert.Len(t, store.channels, 1)
}

func TestAddChannelResolveFailureEndsFlow(t *testing.T) {
	m, store, _ := newTestMachine()
	ctx := context.Background()

	_, err := m.OnButton(ctx, operator, AddChannel{})
	require.NoError(t, err)
	v, err := m.OnText(ctx, operator, "@unknown")
	require.NoError(t, err)
	assert.Equal(t, ViewNotice, v.Kind)
	assert.Equal(t, TextResolveFailed, v.Notice)
	assert.Equal(t, StepNone, m.Step(operator))
	assert.Empty(t, store.channels)
}

func TestNewPostFlow(t *testing.T) {
	m, store, rec := newTestMachine()
	ctx := context.Background()

	v, err := m.OnButton(ctx, operator, ManageChannel{ChannelID: -1001})
	require.NoError(t, err)
	assert.Equal(t, ViewChannelMenu, v.Kind)
	assert.Equal(t, int64(-1001), v.ChannelID)

	_, err = m.OnButton(ctx, operator, NewPost{})
	require.NoError(t, err)
	assert.Equal(t, StepWaitPhoto, m.Step(operator))

	v, err = m.OnPhoto(ctx, operator, "AgAD-photo", "Hello")
	require.NoError(t, err)
	assert.Equal(t, ViewPrompt, v.Kind)
	assert.Contains(t, v.Notice, "HH:MM IST")
	assert.Equal(t, StepWaitTime, m.Step(operator))

	v, err = m.OnText(ctx, operator, "09:30")
	require.NoError(t, err)
	assert.Equal(t, ViewMainMenu, v.Kind)
	assert.Equal(t, "✅ Scheduled for 09:30 IST!", v.Notice)
	assert.Equal(t, StepNone, m.Step(operator))

	require.Len(t, store.posts, 1)
	assert.Equal(t, storage.Post{ID: 1, ChannelID: -1001, PhotoRef: "AgAD-photo", Caption: "Hello", Time: "09:30"}, store.posts[1])
	assert.Equal(t, []string{"new_post"}, rec.flows)
}

func TestNewPostBadTimeCreatesNothing(t *testing.T) {
	m, store, _ := newTestMachine()
	ctx := context.Background()

	_, _ = m.OnButton(ctx, operator, ManageChannel{ChannelID: -1001})
	_, _ = m.OnButton(ctx, operator, NewPost{})
	_, _ = m.OnPhoto(ctx, operator, "p", "")

	for _, bad := range []string{"9:30", "24:00", "noon"} {
		v, err := m.OnText(ctx, operator, bad)
		require.NoError(t, err)
		assert.Equal(t, ViewNotice, v.Kind, bad)
		assert.Equal(t, StepNone, m.Step(operator), bad)
	}
	assert.Empty(t, store.posts)
}

func TestNewPostWithoutActiveChannel(t *testing.T) {
	m, _, _ := newTestMachine()

	v, err := m.OnButton(context.Background(), operator, NewPost{})
	require.NoError(t, err)
	assert.Equal(t, ViewMainMenu, v.Kind)
	assert.Equal(t, TextPickChannel, v.Notice)
	assert.Equal(t, StepNone, m.Step(operator))
}

func TestPhotoOutsideWaitPhotoIsIgnored(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	v, err := m.OnPhoto(ctx, operator, "p", "c")
	require.NoError(t, err)
	assert.Equal(t, ViewNone, v.Kind)
	assert.Equal(t, StepNone, m.Step(operator))

	_, _ = m.OnButton(ctx, operator, AddChannel{})
	v, err = m.OnPhoto(ctx, operator, "p", "c")
	require.NoError(t, err)
	assert.Equal(t, ViewNone, v.Kind)
	assert.Equal(t, StepWaitChannel, m.Step(operator))
}

func TestEditCaptionAndDelete(t *testing.T) {
	m, store, rec := newTestMachine()
	ctx := context.Background()
	id, err := store.CreatePost(ctx, storage.NewPost{ChannelID: -1001, PhotoRef: "p", Caption: "old", Time: "08:00"})
	require.NoError(t, err)

	v, err := m.OnButton(ctx, operator, PostDetails{PostID: id})
	require.NoError(t, err)
	assert.Equal(t, ViewPostDetails, v.Kind)
	require.NotNil(t, v.Post)
	assert.Equal(t, "old", v.Post.Caption)

	_, err = m.OnButton(ctx, operator, EditCaption{PostID: id})
	require.NoError(t, err)
	assert.Equal(t, StepWaitEdit, m.Step(operator))

	v, err = m.OnText(ctx, operator, "*new* caption")
	require.NoError(t, err)
	assert.Equal(t, TextCaptionUpdated, v.Notice)
	assert.Equal(t, "*new* caption", store.posts[id].Caption)
	assert.Equal(t, "08:00", store.posts[id].Time)
	assert.Equal(t, int64(-1001), store.posts[id].ChannelID)
	assert.Equal(t, "p", store.posts[id].PhotoRef)

	v, err = m.OnButton(ctx, operator, DeletePost{PostID: id})
	require.NoError(t, err)
	assert.Equal(t, ViewMainMenu, v.Kind)
	assert.Empty(t, store.posts)

	v, err = m.OnButton(ctx, operator, PostDetails{PostID: id})
	require.NoError(t, err)
	assert.Equal(t, ViewMainMenu, v.Kind)
	assert.Equal(t, TextPostNotFound, v.Notice)

	assert.Equal(t, []string{"edit_caption", "delete_post"}, rec.flows)
}

func TestListViews(t *testing.T) {
	m, store, _ := newTestMachine()
	ctx := context.Background()

	v, err := m.OnButton(ctx, operator, ListChannels{})
	require.NoError(t, err)
	assert.Equal(t, ViewMainMenu, v.Kind)
	assert.Equal(t, TextNoChannels, v.Notice)

	require.NoError(t, store.UpsertChannel(ctx, -1001, "News"))
	v, err = m.OnButton(ctx, operator, ListChannels{})
	require.NoError(t, err)
	assert.Equal(t, ViewChannelList, v.Kind)
	assert.Len(t, v.Channels, 1)

	v, err = m.OnButton(ctx, operator, ViewPosts{ChannelID: -1001})
	require.NoError(t, err)
	assert.Equal(t, ViewPostList, v.Kind)
	assert.Empty(t, v.Posts)
}

func TestTextWithoutPendingDoesNothing(t *testing.T) {
	m, store, _ := newTestMachine()
	v, err := m.OnText(context.Background(), operator, "hello")
	require.NoError(t, err)
	assert.Equal(t, ViewNone, v.Kind)
	assert.Empty(t, store.posts)
}

func TestNewFlowOverwritesPending(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	_, _ = m.OnButton(ctx, operator, AddChannel{})
	_, _ = m.OnButton(ctx, operator, EditCaption{PostID: 5})
	assert.Equal(t, StepWaitEdit, m.Step(operator))

	m.Reset(operator)
	assert.Equal(t, StepNone, m.Step(operator))
}

func TestResetDropsEmptySessionKeepsActiveChannel(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	_, _ = m.OnButton(ctx, operator, AddChannel{})
	assert.Equal(t, 1, m.Sessions())
	m.Reset(operator)
	assert.Zero(t, m.Sessions())

	_, _ = m.OnButton(ctx, operator, ManageChannel{ChannelID: -1001})
	_, _ = m.OnButton(ctx, operator, NewPost{})
	assert.Equal(t, StepWaitPhoto, m.Step(operator))
	m.Reset(operator)
	assert.Equal(t, 1, m.Sessions())
	assert.Equal(t, StepNone, m.Step(operator))
	assert.Equal(t, int64(-1001), m.ActiveChannel(operator))
}

func TestStoreErrorsPropagate(t *testing.T) {
	m, store, _ := newTestMachine()
	boom := errors.New("db down")
	store.failWith = boom

	_, err := m.OnButton(context.Background(), operator, ListChannels{})
	assert.ErrorIs(t, err, boom)
}

func TestOperatorsAreIndependent(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	_, _ = m.OnButton(ctx, 1, AddChannel{})
	_, _ = m.OnButton(ctx, 2, EditCaption{PostID: 9})
	assert.Equal(t, StepWaitChannel, m.Step(1))
	assert.Equal(t, StepWaitEdit, m.Step(2))
}
