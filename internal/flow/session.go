package flow

// Step is the operator's position in a conversation.
type Step string

const (
	StepNone        Step = "none"
	StepWaitChannel Step = "wait-channel"
	StepWaitPhoto   Step = "wait-photo"
	StepWaitTime    Step = "wait-time"
	StepWaitEdit    Step = "wait-edit"
)

// Pending is the input the machine expects next. A nil Pending means none.
type Pending interface {
	step() Step
}

type awaitChannel struct{}

type awaitPhoto struct{}

// awaitTime stages the photo until the operator sends a time of day.
type awaitTime struct {
	PhotoRef string
	Caption  string
}

type awaitCaption struct {
	PostID int64
}

func (awaitChannel) step() Step { return StepWaitChannel }
func (awaitPhoto) step() Step   { return StepWaitPhoto }
func (awaitTime) step() Step    { return StepWaitTime }
func (awaitCaption) step() Step { return StepWaitEdit }

// Session is the per-operator conversation state.
type Session struct {
	// ActiveChannelID is the channel last opened from the channel list; 0 when none.
	ActiveChannelID int64
	Pending         Pending
}

// Step derives the current step from the pending variant.
func (s Session) Step() Step {
	if s.Pending == nil {
		return StepNone
	}
	return s.Pending.step()
}
