// Package mqtttest runs an in-process MQTT broker for tests.
package mqtttest

import (
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Broker is a running in-process broker bound to a loopback port.
type Broker struct {
	Server *mochi.Server
	Host   string
	Port   int
}

// Address returns host:port.
func (b *Broker) Address() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// Publish injects a message as if another client had published it.
func (b *Broker) Publish(t testing.TB, topic string, payload []byte) {
	t.Helper()
	if err := b.Server.Publish(topic, payload, false, 0); err != nil {
		t.Fatalf("broker publish %s: %v", topic, err)
	}
}

// Start launches a broker that accepts every client and stops it when the
// test ends.
func Start(t testing.TB) *Broker {
	t.Helper()

	port := FreePort(t)

	server := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		t.Fatalf("add allow hook: %v", err)
	}

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "test-" + strconv.Itoa(port),
		Address: net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
	})
	if err := server.AddListener(tcp); err != nil {
		t.Fatalf("add listener: %v", err)
	}

	go func() {
		_ = server.Serve()
	}()

	t.Cleanup(func() {
		_ = server.Close()
	})

	return &Broker{Server: server, Host: "127.0.0.1", Port: port}
}

// FreePort returns a loopback TCP port that nothing is listening on.
func FreePort(t testing.TB) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}
