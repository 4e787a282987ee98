package mqtt

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time a single dial attempt may take.
	defaultConnectTimeout = 10 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// DefaultKeepAlive is the keepalive interval for the connection.
	DefaultKeepAlive = 30 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// maxPort is the highest valid TCP port.
	maxPort = 65535

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// Options describes a single broker connection.
//
// Host must already be stripped of any URL scheme (see StripScheme); the
// engine chooses tcp:// or ssl:// itself based on TLS.
type Options struct {
	Host     string
	Port     int
	ClientID string

	// Username and Password are sent only when both are non-empty.
	Username string
	Password string

	// TLS switches the transport to ssl:// with the system root pool.
	TLS bool

	// KeepAlive defaults to DefaultKeepAlive when zero.
	KeepAlive time.Duration

	// ConnectTimeout bounds one dial attempt; defaults to 10s when zero.
	ConnectTimeout time.Duration
}

// validate checks the options can produce a usable broker URL.
func (o Options) validate() error {
	var errs []string
	if strings.TrimSpace(o.Host) == "" {
		errs = append(errs, "host is required")
	}
	if o.Port < 1 || o.Port > maxPort {
		errs = append(errs, fmt.Sprintf("port %d out of range 1-%d", o.Port, maxPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(errs, "; "))
	}
	return nil
}

// brokerURL returns the paho broker URL for these options.
func (o Options) brokerURL() string {
	scheme := "tcp"
	if o.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, o.Host, o.Port)
}

// buildClientOptions creates paho MQTT options for a supervised engine.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on the TLS flag)
//   - Client ID and optional credentials
//   - Keepalive and connect timeout
//   - Clean session mode
//
// Auto-reconnect and connect-retry are disabled: the engine redials only
// when polled, which leaves retry pacing to the caller.
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(o.brokerURL())
	opts.SetClientID(o.ClientID)

	if o.Username != "" && o.Password != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	// Inbound messages must reach the event queue in arrival order.
	opts.SetOrderMatters(true)

	keepAlive := o.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	opts.SetConnectTimeout(connectTimeout)

	if o.TLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}
