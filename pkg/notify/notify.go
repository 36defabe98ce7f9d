// Package notify shows desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"
	log "github.com/sirupsen/logrus"
)

//go:generate mockery -name Notifier

// Notifier shows a message to the user outside of the terminal.
type Notifier interface {
	Notify(message, title string) error
}

// alert is mocked for unit testing.
var alert = func(title, message string) error {
	return beeep.Alert(title, message, "")
}

// Desktop shows notifications through the operating system's notification
// center.
type Desktop struct{}

// Notify shows `message` as an alert titled `title`.
func (Desktop) Notify(message, title string) error {
	return alert(title, message)
}

// BestEffort notifies the user through `n`, and logs `message` if the
// notification couldn't be shown.
func BestEffort(n Notifier, message, title string) {
	if err := n.Notify(message, title); err != nil {
		log.WithError(err).Debug("Failed to show notification")
		log.Error(message)
	}
}
