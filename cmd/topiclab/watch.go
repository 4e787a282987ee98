package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerrad567/topiclab/internal/infrastructure/logging"
	"github.com/nerrad567/topiclab/internal/session"
)

type watchOptions struct {
	topics  []string
	noColor bool
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <connection-id>",
		Short: "Connect a saved profile and print received messages",
		Long: `watch connects to the broker of a saved connection, subscribes to its
saved subscriptions (or the --topic filters) and prints every received
message until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringArrayVarP(&opts.topics, "topic", "t", nil, "topic filter to subscribe to (repeatable)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colour output")
	return cmd
}

func runWatch(cmd *cobra.Command, root *rootOptions, opts *watchOptions, id string) error {
	ctx := cmd.Context()

	store, cfg, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	data, err := store.Load(ctx)
	store.Close()
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	conn, err := data.Connection(id)
	if err != nil {
		return err
	}

	topics := opts.topics
	if len(topics) == 0 {
		topics = conn.ResolvedSubscriptions()
	}
	if len(topics) == 0 {
		return fmt.Errorf("connection %q has no saved subscriptions; pass --topic", id)
	}

	log := logging.New(cfg.Logging, version)
	console := newConsoleNotifier(cmd.OutOrStdout(), opts.noColor)

	sess := session.New(session.Config{
		Notifier:             console,
		Logger:               log.With("component", "session"),
		SettleDelay:          cfg.GetSettleDelay(),
		Backoff:              cfg.GetBackoff(),
		MaxConsecutiveErrors: cfg.Session.MaxConsecutiveErrors,
		BufferCapacity:       cfg.Session.BufferCapacity,
	})
	defer sess.Disconnect()

	if err := sess.Connect(ctx, conn.SessionConfig()); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	if !waitForStatus(ctx, sess, session.StatusConnected, connectWait) {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("broker %s:%d not connected (status %s)", conn.BrokerURL, conn.Port, sess.Status())
	}

	subscribeAll(ctx, log, sess, topics)
	console.Info(fmt.Sprintf("watching %d filter(s) on %s, Ctrl+C to stop", len(sess.Subscriptions()), conn.Name))

	<-ctx.Done()
	return nil
}

// consoleNotifier prints session events to a terminal.
type consoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	faint  *color.Color
	topic  *color.Color
	status map[session.Status]*color.Color
}

var _ session.Notifier = (*consoleNotifier)(nil)

func newConsoleNotifier(out io.Writer, noColor bool) *consoleNotifier {
	n := &consoleNotifier{
		out:   out,
		now:   time.Now,
		faint: color.New(color.Faint),
		topic: color.New(color.FgCyan, color.Bold),
		status: map[session.Status]*color.Color{
			session.StatusConnected:    color.New(color.FgGreen),
			session.StatusConnecting:   color.New(color.FgYellow),
			session.StatusDisconnected: color.New(color.Faint),
			session.StatusError:        color.New(color.FgRed, color.Bold),
		},
	}
	if noColor {
		n.faint.DisableColor()
		n.topic.DisableColor()
		for _, c := range n.status {
			c.DisableColor()
		}
	}
	return n
}

// StatusChanged implements session.Notifier.
func (n *consoleNotifier) StatusChanged(status session.Status) {
	c, ok := n.status[status]
	if !ok {
		c = n.faint
	}
	n.println(n.faint.Sprint(n.now().Format(time.TimeOnly)) + " " + c.Sprintf("[%s]", status))
}

// MessageReceived implements session.Notifier.
func (n *consoleNotifier) MessageReceived(msg session.Message) {
	at := time.UnixMilli(msg.Timestamp).Format("15:04:05.000")
	n.println(n.faint.Sprint(at) + " " + n.topic.Sprint(msg.Topic) + " " + msg.Payload)
}

// Info prints a plain informational line.
func (n *consoleNotifier) Info(line string) {
	n.println(n.faint.Sprint(line))
}

func (n *consoleNotifier) println(line string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, line)
}
