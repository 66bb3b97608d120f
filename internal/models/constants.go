package models

const (
	OrderStatusPending   = "pending"
	OrderStatusAssigned  = "assigned"
	OrderStatusPickedUp  = "picked_up"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"

	EventOrderCreated   = "order_created"
	EventOrderAssigned  = "order_assigned"
	EventOrderPickedUp  = "order_picked_up"
	EventOrderDelivered = "order_delivered"
	EventOrderCancelled = "order_cancelled"
	EventAccident       = "accident"
	EventWeatherChange  = "weather_change"

	CancelReasonAccident = "courier_accident"

	WeatherClear = "clear"
	WeatherRain  = "rain"
	WeatherSnow  = "snow"
	WeatherFrost = "frost"
	WeatherIce   = "ice"

	RoutingDirect = "direct"
	RoutingGrid   = "grid"

	CourierTypeDrone = "drone"
	CourierTypeBiker = "biker"

	OutputConsole  = "console"
	OutputFile     = "file"
	OutputKafka    = "kafka"
	OutputPostgres = "postgres"
	OutputNone     = "none"
)

// WeatherRegimes lists every regime name in selection order.
var WeatherRegimes = []string{WeatherClear, WeatherRain, WeatherSnow, WeatherFrost, WeatherIce}

// EventTypes lists every event type the simulation publishes.
var EventTypes = []string{
	EventOrderCreated,
	EventOrderAssigned,
	EventOrderPickedUp,
	EventOrderDelivered,
	EventOrderCancelled,
	EventAccident,
	EventWeatherChange,
}
