package worker

import (
	"github.com/spec-kit/internal-crm/internal/events"
	"github.com/spec-kit/internal-crm/internal/notify"
)

// StartNotificationWorker attaches notification sinks to the dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, sinks ...notify.Sink) {
	if dispatcher == nil {
		return
	}
	for _, sink := range sinks {
		if sink != nil {
			sink.Register(dispatcher)
		}
	}
}
