package storage

// Channel is a registered delivery destination.
type Channel struct {
	ID   int64  `db:"channel_id"`
	Name string `db:"channel_name"`
}

// Post is an image with caption delivered to a channel every day at Time.
type Post struct {
	ID        int64  `db:"id"`
	ChannelID int64  `db:"channel_id"`
	PhotoRef  string `db:"photo_id"`
	Caption   string `db:"caption"`
	// Time is a zero-padded 24h HH:MM key in the scheduler's zone.
	Time string `db:"scheduled_time"`
}

// PostSummary is the listing projection of a post.
type PostSummary struct {
	ID   int64  `db:"id"`
	Time string `db:"scheduled_time"`
}

// NewPost carries the values collected by the new-post flow.
type NewPost struct {
	ChannelID int64
	PhotoRef  string
	Caption   string
	Time      string
}
