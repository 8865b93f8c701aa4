package analytics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rozgarportal/api/internal/db"
	"github.com/rozgarportal/api/internal/logging"
	"github.com/rozgarportal/api/internal/metrics"
	"github.com/rozgarportal/api/internal/middleware"
)

// EventWriter persists batches of tracked events
type EventWriter interface {
	InsertAnalyticsEvents(ctx context.Context, events []db.AnalyticsEvent) error
}

// Tracker collects usage events on a buffered channel and batch-writes
// them in the background. Tracking never blocks a request: when the
// buffer is full the event is dropped and counted.
type Tracker struct {
	writer        EventWriter
	logger        *logging.Logger
	events        chan db.AnalyticsEvent
	batchSize     int
	flushInterval time.Duration
	done          chan struct{}
	closeOnce     sync.Once
}

// NewTracker creates and starts a tracker
func NewTracker(writer EventWriter, logger *logging.Logger, bufferSize, batchSize int, flushInterval time.Duration) *Tracker {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 60 * time.Second
	}

	t := &Tracker{
		writer:        writer,
		logger:        logger,
		events:        make(chan db.AnalyticsEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}

	go t.run()

	return t
}

// Track enqueues an event. Safe to call on a nil tracker (analytics
// disabled), and never blocks.
func (t *Tracker) Track(event db.AnalyticsEvent) {
	if t == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case t.events <- event:
	default:
		metrics.RecordAnalyticsEventDropped()
	}
}

// TrackHTTP enqueues an event enriched with request metadata
func (t *Tracker) TrackHTTP(eventName, userID string, properties map[string]interface{}, r *http.Request) {
	if t == nil {
		return
	}
	t.Track(db.AnalyticsEvent{
		EventName:  eventName,
		UserID:     userID,
		Properties: properties,
		PageURL:    r.URL.Path,
		Referrer:   r.Referer(),
		UserAgent:  r.UserAgent(),
		IPAddress:  middleware.ClientIP(r),
	})
}

// Close drains the buffer, flushes the tail and stops the worker
func (t *Tracker) Close() {
	if t == nil {
		return
	}
	t.closeOnce.Do(func() {
		close(t.events)
		<-t.done
	})
}

func (t *Tracker) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	batch := make([]db.AnalyticsEvent, 0, t.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := t.writer.InsertAnalyticsEvents(ctx, batch); err != nil && t.logger != nil {
			t.logger.Error("Failed to flush analytics events", err, map[string]interface{}{
				"count": len(batch),
			})
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case event, ok := <-t.events:
			if !ok {
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
