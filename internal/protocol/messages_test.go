package protocol

import (
	"errors"
	"testing"
)

func TestParseSendMessage(t *testing.T) {
	raw := []byte(`{"type":"send_message","session_id":"s1","user_input":"hello","message":"hello","ts_ms":42}`)
	got, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	msg, ok := got.(SendMessage)
	if !ok {
		t.Fatalf("ParseClientMessage() = %T, want SendMessage", got)
	}
	if msg.SessionID != "s1" || msg.UserInput != "hello" || msg.Message != "hello" || msg.TSMs != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestParseSendMessageEmptyTextAllowed(t *testing.T) {
	// Empty utterances are valid frames; the dispatcher decides what to
	// answer, not the codec.
	raw := []byte(`{"type":"send_message","session_id":"s1","user_input":""}`)
	if _, err := ParseClientMessage(raw); err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
}

func TestParseSendMessageMissingSession(t *testing.T) {
	raw := []byte(`{"type":"send_message","user_input":"hello"}`)
	if _, err := ParseClientMessage(raw); err == nil {
		t.Fatalf("expected error for missing session_id")
	}
}

func TestParseUnsupportedType(t *testing.T) {
	raw := []byte(`{"type":"receive_message","session_id":"s1"}`)
	_, err := ParseClientMessage(raw)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := ParseClientMessage([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed frame")
	}
}
