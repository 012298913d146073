package state

// Manager stores one session of type S per user.
type Manager[S any] interface {
	// Get returns the user's session, or the zero S and false when none exists.
	Get(userID int64) (S, bool)
	Set(userID int64, s S)
	// Update applies fn to the current session under the manager lock.
	// A zero-initialized S is passed when the user has no session.
	Update(userID int64, fn func(S) S) S
	Clear(userID int64)
	Len() int
}
