package offlinecache

import (
	"github.com/rs/zerolog"
)

// Event kinds reported to the host messaging collaborator.
const (
	EventUpdateAvailable = "update-available"
	EventSyncComplete    = "sync-complete"
)

// Notifier receives fire-and-forget status events. Implementations relay
// them to however many clients exist; the core never depends on delivery
// and keeps working if events are dropped.
type Notifier interface {
	Notify(event string, payload any)
}

// logNotifier is the default Notifier: events go to the log and nowhere else.
type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) Notify(event string, payload any) {
	n.log.Info().Str("event", event).Interface("payload", payload).Msg("Status event")
}
