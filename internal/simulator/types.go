package simulator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/lucsky/cuid"
	"github.com/xitongsys/parquet-go/schema"
)

// EventRecord is the serialized form of every event. All topics share one
// flat layout so the parquet schema is the same everywhere.
type EventRecord struct {
	EventID         string  `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	RunID           string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Timestamp       int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType       string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	Step            int64   `json:"step" parquet:"name=step,type=INT64"`
	OrderID         int64   `json:"orderId,omitempty" parquet:"name=orderId,type=INT64"`
	CourierID       int64   `json:"courierId,omitempty" parquet:"name=courierId,type=INT64"`
	CourierName     string  `json:"courierName,omitempty" parquet:"name=courierName,type=BYTE_ARRAY,convertedtype=UTF8"`
	CourierType     string  `json:"courierType,omitempty" parquet:"name=courierType,type=BYTE_ARRAY,convertedtype=UTF8"`
	RestaurantName  string  `json:"restaurantName,omitempty" parquet:"name=restaurantName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Price           float64 `json:"price,omitempty" parquet:"name=price,type=DOUBLE"`
	Distance        float64 `json:"distance,omitempty" parquet:"name=distance,type=DOUBLE"`
	Weather         string  `json:"weather,omitempty" parquet:"name=weather,type=BYTE_ARRAY,convertedtype=UTF8"`
	WeatherDisplay  string  `json:"weatherDisplay,omitempty" parquet:"name=weatherDisplay,type=BYTE_ARRAY,convertedtype=UTF8"`
	SurgeMultiplier float64 `json:"surgeMultiplier,omitempty" parquet:"name=surgeMultiplier,type=DOUBLE"`
	Earnings        float64 `json:"earnings,omitempty" parquet:"name=earnings,type=DOUBLE"`
	DeliveryTime    int64   `json:"deliveryTime,omitempty" parquet:"name=deliveryTime,type=INT64"`
	Reason          string  `json:"reason,omitempty" parquet:"name=reason,type=BYTE_ARRAY,convertedtype=UTF8"`
	LocationX       float64 `json:"locationX,omitempty" parquet:"name=locationX,type=DOUBLE"`
	LocationY       float64 `json:"locationY,omitempty" parquet:"name=locationY,type=DOUBLE"`
}

type EventMessage struct {
	Topic   string
	Message []byte
}

// Topic names the stream an event type is written to.
func Topic(eventType string) string {
	return eventType + "_events"
}

func NewEventRecord(runID string, e models.Event, timestamp time.Time) EventRecord {
	r := EventRecord{
		EventID:         cuid.New(),
		RunID:           runID,
		Timestamp:       timestamp.Unix(),
		EventType:       e.Type,
		Step:            int64(e.Step),
		OrderID:         int64(e.OrderID),
		CourierID:       int64(e.CourierID),
		CourierName:     e.CourierName,
		CourierType:     e.CourierType,
		RestaurantName:  e.RestaurantName,
		Price:           e.Price,
		Distance:        e.Distance,
		Weather:         e.Weather,
		WeatherDisplay:  e.WeatherDisplay,
		SurgeMultiplier: e.SurgeMultiplier,
		Earnings:        e.Earnings,
		DeliveryTime:    int64(e.DeliveryTime),
		Reason:          e.Reason,
	}
	if e.Location != nil {
		r.LocationX = e.Location.X
		r.LocationY = e.Location.Y
	}
	return r
}

func serializeEvent(runID string, e models.Event, timestamp time.Time) (EventMessage, error) {
	msg, err := json.Marshal(NewEventRecord(runID, e, timestamp))
	if err != nil {
		return EventMessage{}, fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}
	return EventMessage{Topic: Topic(e.Type), Message: msg}, nil
}

// GetSchema returns the parquet schema of a known topic.
func GetSchema(topic string) (*schema.SchemaHandler, error) {
	known := false
	for _, t := range models.EventTypes {
		if Topic(t) == topic {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown event topic: %s", topic)
	}

	sh, err := schema.NewSchemaHandlerFromStruct(new(EventRecord))
	if err != nil {
		return nil, fmt.Errorf("error creating schema for %s: %w", topic, err)
	}
	return sh, nil
}
