// Package mqtt adapts the paho MQTT client into a pollable protocol engine.
//
// Paho reports connection and message activity through callbacks. The
// session supervisor wants the opposite shape: a single goroutine that asks
// "what happened next?" and reacts in order. Engine bridges the two by
// funnelling every callback into one ordered event queue that Poll drains.
//
// # Connection lifecycle
//
// Paho's own auto-reconnect is disabled. An Engine dials lazily on the first
// Poll, and again on any Poll made while the connection is down, so the
// caller decides how often to retry and when to give up:
//
//	engine, err := mqtt.NewEngine(mqtt.Options{Host: "localhost", Port: 1883, ClientID: "lab"})
//	if err != nil {
//	    return err
//	}
//	defer engine.Disconnect()
//
//	for {
//	    ev, err := engine.Poll(ctx)
//	    if err != nil {
//	        // transport failure; back off and poll again to redial
//	    }
//	    switch ev.Kind {
//	    case mqtt.EventConnAck:
//	    case mqtt.EventPublish:
//	    }
//	}
//
// # Broker addresses
//
// Users paste broker addresses in many forms ("mqtt://host", "ssl://host",
// " host "). StripScheme normalises them to a bare host before the engine
// builds its own tcp:// or ssl:// URL from the TLS flag.
//
// # Security Considerations
//
//   - TLS uses the system roots with a TLS 1.2 minimum
//   - Credentials are only sent when a username is configured
//   - Payloads are not encrypted beyond the TLS transport
package mqtt
