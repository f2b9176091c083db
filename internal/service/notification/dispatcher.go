package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
)

const dispatchTimeout = 30 * time.Second

// AsyncDispatcher delivers each message on its own goroutine so callers never
// wait on a channel. Failures are logged.
type AsyncDispatcher struct {
	sink notification.Sink
	wg   sync.WaitGroup
}

func NewAsyncDispatcher(sink notification.Sink) *AsyncDispatcher {
	return &AsyncDispatcher{sink: sink}
}

// Dispatch implements notification.Dispatcher.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, msg notification.Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()

		if err := d.sink.Notify(sendCtx, msg); err != nil {
			if !errors.Is(err, notification.ErrDispatch) {
				err = fmt.Errorf("%w: %w", notification.ErrDispatch, err)
			}
			slog.Error("Failed to dispatch notification",
				"recipient_id", msg.RecipientID,
				"type", msg.Type,
				"error", err,
			)
		}
	}()
}

// Wait blocks until every dispatched message has been handled.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// MultiSink sends a message on every channel and reports all failures.
type MultiSink struct {
	channels []namedSink
}

type namedSink struct {
	name string
	sink notification.Sink
}

func NewMultiSink() *MultiSink {
	return &MultiSink{}
}

// Add registers sink under name. A nil sink is ignored.
func (m *MultiSink) Add(name string, sink notification.Sink) *MultiSink {
	if sink != nil {
		m.channels = append(m.channels, namedSink{name: name, sink: sink})
	}
	return m
}

// Notify implements notification.Sink.
func (m *MultiSink) Notify(ctx context.Context, msg notification.Message) error {
	var errs []error
	for _, ch := range m.channels {
		if err := ch.sink.Notify(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", notification.ErrDispatch, ch.name, err))
		}
	}
	return errors.Join(errs...)
}
