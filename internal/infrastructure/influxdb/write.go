package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementMessages = "mqtt_messages"
	MeasurementStatus   = "mqtt_status"
)

// WriteMessage records one received message at its receive time.
//
// Example:
//
//	client.WriteMessage("sensors/kitchen/temp", []byte("21.5"), time.Now())
func (c *Client) WriteMessage(topic string, payload []byte, at time.Time) {
	c.WritePointWithTime(
		MeasurementMessages,
		map[string]string{"topic": topic},
		map[string]interface{}{
			"payload": string(payload),
			"size":    len(payload),
		},
		at,
	)
}

// WriteStatus records a session status transition for the named connection.
func (c *Client) WriteStatus(connection, status string, at time.Time) {
	c.WritePointWithTime(
		MeasurementStatus,
		map[string]string{"connection": connection},
		map[string]interface{}{"status": status},
		at,
	)
}

// WritePointWithTime writes a custom point. Dropped silently after Close.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
