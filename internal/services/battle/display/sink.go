package display

import (
	"context"
	"log"
	"strings"

	"golang.org/x/text/message"
)

// LogSink renders every event in one locale and writes it to a logger.
type LogSink struct {
	logger  *log.Logger
	printer *message.Printer
}

// NewLogSink creates a sink. A nil logger uses the standard logger.
func NewLogSink(logger *log.Logger, locale string) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger, printer: NewPrinter(locale)}
}

// Notify logs the rendered event.
func (s *LogSink) Notify(ctx context.Context, battleID string, audience []string, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Printf("battle %s [%s]: %s", battleID, strings.Join(audience, ","), Render(s.printer, evt))
	return nil
}

// Broadcaster is what the engine notifies.
type Broadcaster interface {
	Notify(ctx context.Context, battleID string, audience []string, evt Event) error
}

// Fanout notifies every broadcaster in order and stops at the first error.
type Fanout []Broadcaster

// Notify forwards the event.
func (f Fanout) Notify(ctx context.Context, battleID string, audience []string, evt Event) error {
	for _, b := range f {
		if b == nil {
			continue
		}
		if err := b.Notify(ctx, battleID, audience, evt); err != nil {
			return err
		}
	}
	return nil
}
