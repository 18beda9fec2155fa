package events

import (
	"slotbook/internal/metrics"

	"github.com/rs/zerolog"
)

// RegisterMetrics counts successful booking mutations.
func RegisterMetrics(bus *EventBus) {
	bus.Subscribe(EventBookingCreated, func(_ *Event) error {
		metrics.IncBooking(metrics.OutcomeCreated)
		return nil
	})
	bus.Subscribe(EventBookingCancelled, func(_ *Event) error {
		metrics.IncBooking(metrics.OutcomeCancelled)
		return nil
	})
}

// RegisterAuditLog writes one structured log line per domain event.
func RegisterAuditLog(bus *EventBus, logger *zerolog.Logger) {
	logBooking := func(event *Event) error {
		var p BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		logger.Info().
			Str("event", event.Type).
			Int64("booking_id", p.BookingID).
			Int64("member_id", p.MemberID).
			Str("member", p.MemberName).
			Str("date", p.Date).
			Int("slot", p.SlotNumber).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(EventBookingCreated, logBooking)
	bus.Subscribe(EventBookingCancelled, logBooking)
	bus.Subscribe(EventCommentCreated, func(event *Event) error {
		var p CommentEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		logger.Info().
			Str("event", event.Type).
			Int64("comment_id", p.CommentID).
			Int64("member_id", p.MemberID).
			Str("date", p.Date).
			Msg("comment event")
		return nil
	})

	bus.OnError(func(event *Event, err error) {
		logger.Error().Err(err).Str("event", event.Type).Msg("event handler failed")
	})
}
