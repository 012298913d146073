package bot

import (
	"strconv"

	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/keyboard"
	"github.com/m3rciful/postbot/internal/flow"
)

// Callback keys. Ids travel in the payload.
const (
	keyMain         = "main"
	keyAddChannel   = "add_ch"
	keyListChannels = "list_ch"
	keyNewPost      = "new_post"
	keyManage       = "manage"
	keyViewPosts    = "view"
	keyDetails      = "details"
	keyEditCaption  = "edit"
	keyDeletePost   = "del"
)

func constant(a flow.Action) func(string) (flow.Action, error) {
	return func(string) (flow.Action, error) { return a, nil }
}

func withID(build func(id int64) flow.Action) func(string) (flow.Action, error) {
	return func(payload string) (flow.Action, error) {
		id, err := callbacks.ParseInt64(payload)
		if err != nil {
			return nil, err
		}
		return build(id), nil
	}
}

var actions = callbacks.Decoder[flow.Action]{
	keyMain:         constant(flow.MainMenu{}),
	keyAddChannel:   constant(flow.AddChannel{}),
	keyListChannels: constant(flow.ListChannels{}),
	keyNewPost:      constant(flow.NewPost{}),
	keyManage:       withID(func(id int64) flow.Action { return flow.ManageChannel{ChannelID: id} }),
	keyViewPosts:    withID(func(id int64) flow.Action { return flow.ViewPosts{ChannelID: id} }),
	keyDetails:      withID(func(id int64) flow.Action { return flow.PostDetails{PostID: id} }),
	keyEditCaption:  withID(func(id int64) flow.Action { return flow.EditCaption{PostID: id} }),
	keyDeletePost:   withID(func(id int64) flow.Action { return flow.DeletePost{PostID: id} }),
}

// encode is the inverse of actions.
func encode(a flow.Action) (unique, payload string) {
	id := func(v int64) string { return strconv.FormatInt(v, 10) }
	switch a := a.(type) {
	case flow.MainMenu:
		return keyMain, ""
	case flow.AddChannel:
		return keyAddChannel, ""
	case flow.ListChannels:
		return keyListChannels, ""
	case flow.NewPost:
		return keyNewPost, ""
	case flow.ManageChannel:
		return keyManage, id(a.ChannelID)
	case flow.ViewPosts:
		return keyViewPosts, id(a.ChannelID)
	case flow.PostDetails:
		return keyDetails, id(a.PostID)
	case flow.EditCaption:
		return keyEditCaption, id(a.PostID)
	case flow.DeletePost:
		return keyDeletePost, id(a.PostID)
	}
	return keyMain, ""
}

func button(text string, a flow.Action) keyboard.InlineBtn {
	unique, payload := encode(a)
	return keyboard.Btn(text, unique, payload)
}
