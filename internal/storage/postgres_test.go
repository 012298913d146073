package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/postbot/internal/clock"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "postgres")), mock
}

func q(sql string) string { return regexp.QuoteMeta(sql) }

func TestUpsertChannelKeepsFirstName(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(q(upsertChannelSQL)).WithArgs(int64(-1001), "news").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(upsertChannelSQL)).WithArgs(int64(-1001), "renamed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.UpsertChannel(ctx, -1001, "news"))
	require.NoError(t, store.UpsertChannel(ctx, -1001, "renamed"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChannels(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(q(listChannelsSQL)).WillReturnRows(
		sqlmock.NewRows([]string{"channel_id", "channel_name"}).
			AddRow(int64(-1002), "alpha").
			AddRow(int64(-1001), "news"),
	)

	channels, err := store.ListChannels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Channel{{ID: -1002, Name: "alpha"}, {ID: -1001, Name: "news"}}, channels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChannelsEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(listChannelsSQL)).WillReturnRows(sqlmock.NewRows([]string{"channel_id", "channel_name"}))

	channels, err := store.ListChannels(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, channels)
	assert.Empty(t, channels)
}

func TestCreatePostReturnsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(q(createPostSQL)).
		WithArgs(int64(-1001), "AgAD", "Hello", "09:30").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.CreatePost(context.Background(), NewPost{
		ChannelID: -1001, PhotoRef: "AgAD", Caption: "Hello", Time: "09:30",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRejectsBadTime(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.CreatePost(context.Background(), NewPost{ChannelID: 1, PhotoRef: "p", Time: "9:30"})
	assert.ErrorIs(t, err, clock.ErrInvalidTimeOfDay)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostWrapsError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")
	mock.ExpectQuery(q(createPostSQL)).WillReturnError(boom)

	_, err := store.CreatePost(context.Background(), NewPost{ChannelID: 1, PhotoRef: "p", Time: "00:00"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "storage: create post")
}

func TestListPosts(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(q(listPostsSQL)).WithArgs(int64(-1001)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "scheduled_time"}).
			AddRow(int64(3), "08:00").
			AddRow(int64(1), "21:15"),
	)

	posts, err := store.ListPosts(context.Background(), -1001)
	require.NoError(t, err)
	assert.Equal(t, []PostSummary{{ID: 3, Time: "08:00"}, {ID: 1, Time: "21:15"}}, posts)
}

func TestGetPost(t *testing.T) {
	store, mock := newMockStore(t)
	cols := []string{"id", "channel_id", "photo_id", "caption", "scheduled_time"}
	mock.ExpectQuery(q(getPostSQL)).WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows(cols).AddRow(int64(7), int64(-1001), "AgAD", "Hello", "09:30"),
	)
	mock.ExpectQuery(q(getPostSQL)).WithArgs(int64(8)).WillReturnRows(sqlmock.NewRows(cols))

	post, err := store.GetPost(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, Post{ID: 7, ChannelID: -1001, PhotoRef: "AgAD", Caption: "Hello", Time: "09:30"}, *post)

	missing, err := store.GetPost(context.Background(), 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCaptionAndDeleteAreNoOpForUnknownID(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(q(updateCaptionSQL)).WithArgs("new", int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q(deletePostSQL)).WithArgs(int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.UpdateCaption(context.Background(), 99, "new"))
	require.NoError(t, store.DeletePost(context.Background(), 99))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostsDueAt(t *testing.T) {
	store, mock := newMockStore(t)
	cols := []string{"id", "channel_id", "photo_id", "caption", "scheduled_time"}
	mock.ExpectQuery(q(postsDueAtSQL)).WithArgs("09:30").WillReturnRows(
		sqlmock.NewRows(cols).
			AddRow(int64(1), int64(-1001), "a", "", "09:30").
			AddRow(int64(2), int64(-1002), "b", "x", "09:30"),
	)
	mock.ExpectQuery(q(postsDueAtSQL)).WithArgs("09:31").WillReturnRows(sqlmock.NewRows(cols))

	due, err := store.PostsDueAt(context.Background(), "09:30")
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, int64(-1002), due[1].ChannelID)

	none, err := store.PostsDueAt(context.Background(), "09:31")
	require.NoError(t, err)
	assert.Empty(t, none)
}
