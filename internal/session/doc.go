// Package session supervises a single interactive MQTT session.
//
// A Session owns at most one protocol engine together with the goroutine
// that drives it. The goroutine (the supervisor) polls the engine, keeps the
// connection status current, appends inbound messages to a bounded buffer
// and gives up after a run of consecutive transport errors.
//
// # Concurrency
//
// Connect and Disconnect replace the engine and therefore serialise on the
// session's write lock. Publish, Subscribe, Unsubscribe and the read
// accessors only need the existing engine and share a read lock. Status,
// the message buffer and the subscription list carry their own locks so the
// supervisor never waits on the façade.
//
// # Events
//
// Every status change and every inbound message is handed to a Notifier.
// Notifiers are called from the supervisor goroutine and must not block or
// call back into the Session.
//
// # Usage
//
//	s := session.New(session.Config{Notifier: hub})
//	if err := s.Connect(ctx, cfg); err != nil {
//	    return err
//	}
//	defer s.Disconnect()
//
//	if err := s.Subscribe(ctx, "lab/#", mqtt.AtLeastOnce); err != nil {
//	    return err
//	}
package session
