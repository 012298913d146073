// Package storage persists channels and scheduled posts in Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/clock"
)

const (
	upsertChannelSQL = `INSERT INTO channels (channel_id, channel_name) VALUES ($1, $2) ON CONFLICT (channel_id) DO NOTHING`
	listChannelsSQL  = `SELECT channel_id, channel_name FROM channels ORDER BY channel_name, channel_id`
	createPostSQL    = `INSERT INTO posts (channel_id, photo_id, caption, scheduled_time) VALUES ($1, $2, $3, $4) RETURNING id`
	listPostsSQL     = `SELECT id, scheduled_time FROM posts WHERE channel_id = $1 ORDER BY scheduled_time, id`
	getPostSQL       = `SELECT id, channel_id, photo_id, caption, scheduled_time FROM posts WHERE id = $1`
	updateCaptionSQL = `UPDATE posts SET caption = $1 WHERE id = $2`
	deletePostSQL    = `DELETE FROM posts WHERE id = $1`
	postsDueAtSQL    = `SELECT id, channel_id, photo_id, caption, scheduled_time FROM posts WHERE scheduled_time = $1 ORDER BY id`
)

// Postgres is the single shared store for the bot and the scheduler.
type Postgres struct {
	db *sqlx.DB
	// wmu serializes writes; reads are single statements and need no lock.
	wmu sync.Mutex
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Ping checks database reachability.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// UpsertChannel registers a channel. The first registration of an id wins;
// later calls never overwrite the stored name.
func (p *Postgres) UpsertChannel(ctx context.Context, id int64, name string) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()

	res, err := p.db.ExecContext(ctx, upsertChannelSQL, id, name)
	if err != nil {
		return fmt.Errorf("storage: upsert channel %d: %w", id, err)
	}
	inserted, _ := res.RowsAffected()
	logger.DB.Debug("channel upserted",
		slog.String("event", "channel.upsert"),
		slog.Int64("channel_id", id),
		slog.Bool("inserted", inserted > 0),
	)
	return nil
}

// ListChannels returns every registered channel.
func (p *Postgres) ListChannels(ctx context.Context) ([]Channel, error) {
	channels := []Channel{}
	if err := p.db.SelectContext(ctx, &channels, listChannelsSQL); err != nil {
		return nil, fmt.Errorf("storage: list channels: %w", err)
	}
	return channels, nil
}

// CreatePost inserts a post and returns its id.
func (p *Postgres) CreatePost(ctx context.Context, np NewPost) (int64, error) {
	if !clock.Valid(np.Time) {
		return 0, fmt.Errorf("storage: create post: %w", clock.ErrInvalidTimeOfDay)
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()

	var id int64
	err := p.db.QueryRowxContext(ctx, createPostSQL, np.ChannelID, np.PhotoRef, np.Caption, np.Time).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("storage: create post: %w", err)
	}
	logger.DB.Debug("post created",
		slog.String("event", "post.create"),
		slog.Int64("post_id", id),
		slog.Int64("channel_id", np.ChannelID),
		slog.String("time_of_day", np.Time),
	)
	return id, nil
}

// ListPosts returns id and time of every post of a channel.
func (p *Postgres) ListPosts(ctx context.Context, channelID int64) ([]PostSummary, error) {
	posts := []PostSummary{}
	if err := p.db.SelectContext(ctx, &posts, listPostsSQL, channelID); err != nil {
		return nil, fmt.Errorf("storage: list posts of %d: %w", channelID, err)
	}
	return posts, nil
}

// GetPost returns the post with id, or nil when it does not exist.
func (p *Postgres) GetPost(ctx context.Context, id int64) (*Post, error) {
	var post Post
	err := p.db.GetContext(ctx, &post, getPostSQL, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get post %d: %w", id, err)
	}
	return &post, nil
}

// UpdateCaption replaces the caption only. Unknown ids are a no-op.
func (p *Postgres) UpdateCaption(ctx context.Context, id int64, caption string) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()

	if _, err := p.db.ExecContext(ctx, updateCaptionSQL, caption, id); err != nil {
		return fmt.Errorf("storage: update caption of %d: %w", id, err)
	}
	return nil
}

// DeletePost removes a post. Unknown ids are a no-op.
func (p *Postgres) DeletePost(ctx context.Context, id int64) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()

	if _, err := p.db.ExecContext(ctx, deletePostSQL, id); err != nil {
		return fmt.Errorf("storage: delete post %d: %w", id, err)
	}
	return nil
}

// PostsDueAt returns every post whose time equals timeOfDay exactly.
func (p *Postgres) PostsDueAt(ctx context.Context, timeOfDay string) ([]Post, error) {
	posts := []Post{}
	if err := p.db.SelectContext(ctx, &posts, postsDueAtSQL, timeOfDay); err != nil {
		return nil, fmt.Errorf("storage: posts due at %s: %w", timeOfDay, err)
	}
	return posts, nil
}
