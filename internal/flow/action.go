package flow

// Action is an operator button press, decoded once by the router.
type Action interface {
	Name() string
}

type (
	MainMenu      struct{}
	AddChannel    struct{}
	ListChannels  struct{}
	NewPost       struct{}
	ManageChannel struct{ ChannelID int64 }
	ViewPosts     struct{ ChannelID int64 }
	PostDetails   struct{ PostID int64 }
	EditCaption   struct{ PostID int64 }
	DeletePost    struct{ PostID int64 }
)

func (MainMenu) Name() string      { return "main" }
func (AddChannel) Name() string    { return "add_channel" }
func (ListChannels) Name() string  { return "list_channels" }
func (NewPost) Name() string       { return "new_post" }
func (ManageChannel) Name() string { return "manage_channel" }
func (ViewPosts) Name() string     { return "view_posts" }
func (PostDetails) Name() string   { return "post_details" }
func (EditCaption) Name() string   { return "edit_caption" }
func (DeletePost) Name() string    { return "delete_post" }
