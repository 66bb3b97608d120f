package stats

import (
	"context"
	"log/slog"

	"github.com/chrisdamba/deliverysim/internal/models"
)

// EventLogger writes one structured line per event.
type EventLogger struct {
	logger *slog.Logger
}

func NewEventLogger(logger *slog.Logger) *EventLogger {
	return &EventLogger{logger: logger.With("component", "events")}
}

func (l *EventLogger) OnEvent(e models.Event) {
	ctx := context.Background()
	attrs := []any{"step", e.Step}

	switch e.Type {
	case models.EventOrderCreated:
		l.logger.InfoContext(ctx, "order created", append(attrs,
			"order_id", e.OrderID,
			"restaurant", e.RestaurantName,
			"price", e.Price,
			"distance", e.Distance,
			"weather", e.WeatherDisplay,
			"surge", e.SurgeMultiplier)...)
	case models.EventOrderAssigned:
		l.logger.InfoContext(ctx, "order assigned", append(attrs,
			"order_id", e.OrderID,
			"courier", e.CourierName)...)
	case models.EventOrderPickedUp:
		l.logger.DebugContext(ctx, "order picked up", append(attrs,
			"order_id", e.OrderID,
			"courier", e.CourierName)...)
	case models.EventOrderDelivered:
		l.logger.InfoContext(ctx, "order delivered", append(attrs,
			"order_id", e.OrderID,
			"courier", e.CourierName,
			"delivery_time", e.DeliveryTime,
			"earnings", e.Earnings)...)
	case models.EventOrderCancelled:
		l.logger.WarnContext(ctx, "order cancelled", append(attrs,
			"order_id", e.OrderID,
			"courier", e.CourierName,
			"reason", e.Reason)...)
	case models.EventAccident:
		if e.Location != nil {
			attrs = append(attrs, "x", e.Location.X, "y", e.Location.Y)
		}
		l.logger.WarnContext(ctx, "courier accident", append(attrs,
			"courier", e.CourierName,
			"weather", e.WeatherDisplay)...)
	case models.EventWeatherChange:
		l.logger.InfoContext(ctx, "weather changed", append(attrs,
			"weather", e.WeatherDisplay)...)
	default:
		l.logger.DebugContext(ctx, "unhandled event", append(attrs, "type", e.Type)...)
	}
}
