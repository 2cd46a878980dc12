package chat

// DefaultRetention matches the "system message plus last nine messages" window
// applied after every assistant turn.
const DefaultRetention = 9

// History owns one conversation's ordered message list. It always starts with
// exactly one system message and is exclusively owned by a single session, so
// it carries no locking.
type History struct {
	messages  []Message
	retention int
}

// NewHistory seeds a conversation with its system message.
func NewHistory(systemText string, retention int) *History {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &History{
		messages:  []Message{System(systemText)},
		retention: retention,
	}
}

// Append adds a message to the end of the conversation. Earlier entries are
// never mutated.
func (h *History) Append(msg Message) {
	h.messages = append(h.messages, msg)
}

// Trim enforces the retention window: when the conversation exceeds
// 1+retention messages it is rebuilt as the system message followed by the
// most recent retention messages. Trimming is lossy and keeps relative order
// of the retained tail.
func (h *History) Trim() {
	if len(h.messages) <= 1+h.retention {
		return
	}
	trimmed := make([]Message, 0, 1+h.retention)
	trimmed = append(trimmed, h.messages[0])
	trimmed = append(trimmed, h.messages[len(h.messages)-h.retention:]...)
	h.messages = trimmed
}

// Snapshot returns a copy of the current conversation in order.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len reports the current conversation length including the system message.
func (h *History) Len() int { return len(h.messages) }

// Reset drops everything except the original system message.
func (h *History) Reset() {
	h.messages = h.messages[:1]
}
