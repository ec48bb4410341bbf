package users

// Level is the severity of a notice
type Level int

const (
	// LevelInfo is a neutral notice
	LevelInfo Level = iota
	// LevelSuccess confirms a completed action
	LevelSuccess
	// LevelError reports a failed action
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient user-visible message.
type Notice struct {
	Level   Level
	Message string
	// Err is the failure behind an error notice.
	Err error
}

// Notifier receives notices. Implementations must not call back into the
// controller synchronously.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
