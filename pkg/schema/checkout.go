package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

// Money amounts are decimal strings, "89.9".
const CheckoutEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "paintstore",
	"name": "checkout_event",
	"fields": [
		{"name": "event_id", "type": "string"},
		{"name": "cart_key", "type": "string"},
		{"name": "lines", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "checkout_line",
				"fields": [
					{"name": "kind", "type": "string"},
					{"name": "item_id", "type": "long"},
					{"name": "name", "type": "string"},
					{"name": "quantity", "type": "int"},
					{"name": "unit_price", "type": "string"},
					{"name": "subtotal", "type": "string"}
				]
			}
		}},
		{"name": "total_items", "type": "int"},
		{"name": "total_price", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	CheckoutEventV1 struct {
		EventID    string           `avro:"event_id"`
		CartKey    string           `avro:"cart_key"`
		Lines      []CheckoutLineV1 `avro:"lines"`
		TotalItems int              `avro:"total_items"`
		TotalPrice string           `avro:"total_price"`
		CreatedAt  time.Time        `avro:"created_at"`
	}

	CheckoutLineV1 struct {
		Kind      string `avro:"kind"`
		ItemID    int64  `avro:"item_id"`
		Name      string `avro:"name"`
		Quantity  int    `avro:"quantity"`
		UnitPrice string `avro:"unit_price"`
		Subtotal  string `avro:"subtotal"`
	}
)

// CheckoutEventV1Avro panics on an invalid schema text.
func CheckoutEventV1Avro() avro.Schema {
	return avro.MustParse(CheckoutEventSchemaTextV1)
}
