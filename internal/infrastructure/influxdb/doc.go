// Package influxdb archives MQTT traffic to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, health checks and the two measurements Topic Lab records.
//
// # Measurements
//
//   - mqtt_messages: one point per received message, tagged by topic, with
//     fields payload (string) and size (bytes, integer)
//   - mqtt_status: one point per session status change, tagged by connection
//     name, with field status
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteMessage("sensors/temp", []byte("21.5"), time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval.
//
// # Error Handling
//
// Write failures surface asynchronously through SetOnError. Connection and
// health check errors are returned directly.
package influxdb
