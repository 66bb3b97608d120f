package simulator

import (
	"context"
	"log/slog"
	"time"

	"github.com/chrisdamba/deliverysim/internal/models"
)

// EventSink is a listener that forwards every event to an output
// destination. Write failures are logged and counted; they never stop a
// step.
type EventSink struct {
	out          OutputDestination
	runID        string
	start        time.Time
	stepDuration time.Duration
	logger       *slog.Logger

	Written  int
	Failures int
}

func NewEventSink(out OutputDestination, runID string, config *models.Config, logger *slog.Logger) *EventSink {
	return &EventSink{
		out:          out,
		runID:        runID,
		start:        config.StartDate,
		stepDuration: config.StepDuration,
		logger:       logger.With("component", "event_sink"),
	}
}

func (s *EventSink) OnEvent(e models.Event) {
	timestamp := s.start.Add(time.Duration(e.Step) * s.stepDuration)
	msg, err := serializeEvent(s.runID, e, timestamp)
	if err != nil {
		s.Failures++
		s.logger.ErrorContext(context.Background(), "error serializing event", "type", e.Type, "error", err)
		return
	}
	if err := s.out.WriteMessage(msg.Topic, msg.Message); err != nil {
		s.Failures++
		s.logger.ErrorContext(context.Background(), "failed to write message", "topic", msg.Topic, "error", err)
		return
	}
	s.Written++
}

func (s *EventSink) Close() error {
	return s.out.Close()
}
