package workers

import (
	"fmt"

	"github.com/wso2/patient-data-service/internal/events"
	"github.com/wso2/patient-data-service/internal/system/constants"
	"github.com/wso2/patient-data-service/internal/system/log"
)

var FactChangeQueue chan events.FactChangeEvent

// Subscriber consumes fact change events after merge commits. Delivery
// is best effort; the queue drops when full rather than stalling merges.
type Subscriber func(events.FactChangeEvent)

var subscribers []Subscriber

// StartFactChangeWorker initializes the queue and starts the single
// consumer goroutine fanning events out to the registered subscribers.
func StartFactChangeWorker(subs ...Subscriber) {

	subscribers = subs
	FactChangeQueue = make(chan events.FactChangeEvent, constants.DefaultQueueSize)

	go func() {
		for event := range FactChangeQueue {
			for _, subscriber := range subscribers {
				subscriber(event)
			}
		}
	}()
}

// PublishFactChange enqueues a fact change event without blocking the
// caller. Events published before the worker starts are discarded.
func PublishFactChange(event events.FactChangeEvent) {

	if FactChangeQueue == nil {
		return
	}

	select {
	case FactChangeQueue <- event:
	default:
		log.GetLogger().Warn(fmt.Sprintf("Fact change queue is full. Dropping event for record: %s",
			event.RecordId))
	}
}
