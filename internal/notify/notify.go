// Package notify holds the one-shot messages ("toasts") shown to a user
// after an action.
package notify

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind Kind
	Text string
}

func Success(text string) *Notification {
	return &Notification{Kind: KindSuccess, Text: text}
}

func Error(text string) *Notification {
	return &Notification{Kind: KindError, Text: text}
}
