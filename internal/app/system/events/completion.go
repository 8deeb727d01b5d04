// internal/app/system/events/completion.go

// Package events publishes course-completion notifications inside the
// process. The certificate-issuance service (external) subscribes to these
// or polls enrollment status; this service never calls it directly.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CourseCompleted is emitted exactly once per enrollment, when its derived
// progress first reaches 100.
type CourseCompleted struct {
	EventID      string             `json:"event_id"`
	EnrollmentID primitive.ObjectID `json:"enrollment_id"`
	LearnerID    primitive.ObjectID `json:"learner_id"`
	CourseID     primitive.ObjectID `json:"course_id"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// Notifier fans completion events out to subscribers. Publish never blocks:
// a subscriber that falls behind drops events (the enrollment document's
// status field remains the source of truth for anything missed).
type Notifier struct {
	mu   sync.RWMutex
	subs []chan CourseCompleted
	log  *zap.Logger
}

// NewNotifier creates a Notifier. logger may be nil.
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{log: logger}
}

// Subscribe registers a buffered channel receiving future completion events.
func (n *Notifier) Subscribe() <-chan CourseCompleted {
	ch := make(chan CourseCompleted, 16)
	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()
	return ch
}

// Publish assigns an event id and delivers to all subscribers.
func (n *Notifier) Publish(ev CourseCompleted) {
	ev.EventID = uuid.NewString()

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			n.log.Warn("completion event dropped for slow subscriber",
				zap.String("event_id", ev.EventID),
				zap.String("enrollment_id", ev.EnrollmentID.Hex()))
		}
	}
	n.log.Info("enrollment completed",
		zap.String("event_id", ev.EventID),
		zap.String("enrollment_id", ev.EnrollmentID.Hex()),
		zap.String("learner_id", ev.LearnerID.Hex()),
		zap.String("course_id", ev.CourseID.Hex()))
}
