package dialogue

import (
	"context"
	"time"

	"github.com/KiranJulakanti/chatagent/internal/chat"
	"github.com/KiranJulakanti/chatagent/internal/protocol"
	"github.com/KiranJulakanti/chatagent/internal/session"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

// RunConnection drives one client connection: it owns the conversation
// history for the session, pushes the welcome message, and handles
// inbound frames sequentially until the inbound channel closes or the
// context is cancelled. The transport owns both channels.
func (d *Dispatcher) RunConnection(ctx context.Context, sess *session.Session, inbound <-chan protocol.SendMessage, outbound chan<- protocol.ReceiveMessage) {
	hist := chat.NewHistory(conversationSystemPrompt, d.retention)
	ch := &outboundChannel{sessionID: sess.ID, out: outbound}

	d.tracker.TrackEvent("ClientConnected", map[string]string{"session_id": sess.ID})
	defer d.tracker.TrackEvent("ClientDisconnected", map[string]string{"session_id": sess.ID})

	t := &turn{d: d, hist: hist, ch: ch}
	_ = t.push(ctx, msgWelcome)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			if d.sessions != nil {
				if err := d.sessions.Touch(sess.ID); err != nil {
					d.tracker.TrackTrace("message for unknown session", telemetry.SeverityWarning, map[string]string{
						"session_id": sess.ID,
					})
					return
				}
			}
			d.HandleMessage(ctx, sess, hist, ch, msg.UserInput, msg.Message)
		}
	}
}

// outboundChannel adapts the transport's outbound frame channel to the
// dispatcher's push contract.
type outboundChannel struct {
	sessionID string
	out       chan<- protocol.ReceiveMessage
}

func (c *outboundChannel) Push(ctx context.Context, sender, text string) error {
	msg := protocol.ReceiveMessage{
		Type:      protocol.TypeReceiveMessage,
		SessionID: c.sessionID,
		Sender:    sender,
		Text:      text,
		TSMs:      time.Now().UnixMilli(),
	}
	select {
	case c.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
