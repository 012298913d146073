package flow

import "github.com/m3rciful/postbot/internal/storage"

// ViewKind selects how the router renders a View.
type ViewKind int

const (
	// ViewNone means nothing is sent back.
	ViewNone ViewKind = iota
	// ViewNotice is a plain message without keyboard.
	ViewNotice
	// ViewMainMenu shows the main menu, preceded by Notice when set.
	ViewMainMenu
	// ViewPrompt asks the operator for input.
	ViewPrompt
	ViewChannelList
	ViewChannelMenu
	ViewPostList
	ViewPostDetails
)

var viewKindNames = [...]string{"none", "notice", "main_menu", "prompt", "channel_list", "channel_menu", "post_list", "post_details"}

func (k ViewKind) String() string {
	if int(k) < len(viewKindNames) {
		return viewKindNames[k]
	}
	return "unknown"
}

// View describes the next message shown to the operator.
type View struct {
	Kind      ViewKind
	Notice    string
	Channels  []storage.Channel
	Posts     []storage.PostSummary
	Post      *storage.Post
	ChannelID int64
}

func notice(text string) View { return View{Kind: ViewNotice, Notice: text} }

func prompt(text string) View { return View{Kind: ViewPrompt, Notice: text} }

func mainMenu(text string) View { return View{Kind: ViewMainMenu, Notice: text} }
