package types

import (
	"math/big"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderEventRow mirrors the order_events BigQuery schema. One row is written
// per lifecycle event; amount columns are NUMERIC and only set for the events
// that carry them.
type OrderEventRow struct {
	EventID    string             `bigquery:"event_id"`
	EventType  string             `bigquery:"event_type"`
	OccurredAt time.Time          `bigquery:"occurred_at"`
	OrderID    string             `bigquery:"order_id"`
	CustomerID *string            `bigquery:"customer_id"`
	ActorID    *string            `bigquery:"actor_id"`
	DriverID   *string            `bigquery:"driver_id"`
	FromStatus *string            `bigquery:"from_status"`
	ToStatus   *string            `bigquery:"to_status"`
	Subtotal   *big.Rat           `bigquery:"subtotal"`
	Discount   *big.Rat           `bigquery:"discount"`
	Total      *big.Rat           `bigquery:"total"`
	Refunded   *big.Rat           `bigquery:"refunded"`
	BidAmount  *big.Rat           `bigquery:"bid_amount"`
	ItemCount  *int64             `bigquery:"item_count"`
	IsVIP      *bool              `bigquery:"is_vip"`
	Payload    cbigquery.NullJSON `bigquery:"payload"`
}

// Save implements bigquery.ValueSaver. Nil pointers become NULL and the
// event id doubles as the streaming insert id.
func (r OrderEventRow) Save() (map[string]cbigquery.Value, string, error) {
	row := map[string]cbigquery.Value{
		"event_id":    r.EventID,
		"event_type":  r.EventType,
		"occurred_at": r.OccurredAt,
		"order_id":    r.OrderID,
		"customer_id": nullable(r.CustomerID),
		"actor_id":    nullable(r.ActorID),
		"driver_id":   nullable(r.DriverID),
		"from_status": nullable(r.FromStatus),
		"to_status":   nullable(r.ToStatus),
		"subtotal":    numeric(r.Subtotal),
		"discount":    numeric(r.Discount),
		"total":       numeric(r.Total),
		"refunded":    numeric(r.Refunded),
		"bid_amount":  numeric(r.BidAmount),
		"item_count":  nullable(r.ItemCount),
		"is_vip":      nullable(r.IsVIP),
		"payload":     nil,
	}
	if r.Payload.Valid {
		row["payload"] = r.Payload.JSONVal
	}
	return row, r.EventID, nil
}

func nullable[T any](v *T) cbigquery.Value {
	if v == nil {
		return nil
	}
	return *v
}

func numeric(v *big.Rat) cbigquery.Value {
	if v == nil {
		return nil
	}
	return cbigquery.NumericString(v)
}
