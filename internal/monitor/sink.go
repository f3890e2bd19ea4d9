package monitor

import (
	"context"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// Sink receives monitor events.
type Sink interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev domain.Event) error

func (f SinkFunc) Publish(ctx context.Context, ev domain.Event) error { return f(ctx, ev) }

// Fanout delivers each event to every sink, in order. One failing sink does
// not keep the event from the others; their errors are combined.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev domain.Event) error {
	var err error
	for _, s := range f {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Publish(ctx, ev))
	}
	return err
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, domain.Event) error { return nil })
