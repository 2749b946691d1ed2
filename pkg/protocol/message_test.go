package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRequest_NoMessage(t *testing.T) {
	msg, err := NewRequest(7, "/paxmon/universes", "", nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}

	if msg.ContentType != ContentTypeNoMessage {
		t.Errorf("ContentType = %q, want %q", msg.ContentType, ContentTypeNoMessage)
	}
	if string(msg.Content) != "{}" {
		t.Errorf("Content = %s, want {}", msg.Content)
	}
	if msg.Destination.Type != DestinationModule || msg.Destination.Target != "/paxmon/universes" {
		t.Errorf("Destination = %+v", msg.Destination)
	}
	if msg.ID != 7 {
		t.Errorf("ID = %d, want 7", msg.ID)
	}
}

func TestNewRequest_WithContent(t *testing.T) {
	msg, err := NewRequest(1, "/paxmon/status", "PaxMonStatusRequest", PaxMonStatusRequest{Universe: 3})
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}

	if msg.ContentType != "PaxMonStatusRequest" {
		t.Errorf("ContentType = %q", msg.ContentType)
	}
	if string(msg.Content) != `{"universe":3}` {
		t.Errorf("Content = %s", msg.Content)
	}

	data, err := Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"destination":{"type":"Module","target":"/paxmon/status"},"content_type":"PaxMonStatusRequest","content":{"universe":3},"id":1}`
	if string(data) != want {
		t.Errorf("envelope = %s\nwant %s", data, want)
	}
}

func TestMessage_Decode(t *testing.T) {
	msg := &Message{
		ContentType: "PaxMonForkUniverseResponse",
		Content:     []byte(`{"universe":4,"schedule":12,"ttl":120}`),
	}

	var resp PaxMonForkUniverseResponse
	if err := msg.Decode(&resp); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if resp.Universe != 4 || resp.Schedule != 12 || resp.TTL != 120 {
		t.Errorf("decoded %+v", resp)
	}

	var nilMsg *Message
	if err := nilMsg.Decode(&resp); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("Decode on nil message = %v, want ErrEmptyMessage", err)
	}
}

func TestVerifyContentType(t *testing.T) {
	tests := []struct {
		name      string
		msg       *Message
		expected  string
		wantErr   bool
		wantMotis bool
	}{
		{
			name:     "match",
			msg:      &Message{ContentType: "PaxMonStatusResponse"},
			expected: "PaxMonStatusResponse",
		},
		{
			name:     "mismatch",
			msg:      &Message{ContentType: "PaxMonFindTripsResponse"},
			expected: "PaxMonStatusResponse",
			wantErr:  true,
		},
		{
			name: "motis error",
			msg: &Message{
				ContentType: ContentTypeMotisError,
				Content:     []byte(`{"error_code":3,"category":"motis::paxmon","reason":"universe not found"}`),
			},
			expected:  "PaxMonStatusResponse",
			wantErr:   true,
			wantMotis: true,
		},
		{
			name:     "nil message",
			msg:      nil,
			expected: "MotisSuccess",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyContentType(tt.msg, tt.expected)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, ErrUnexpectedContentType) {
				t.Fatalf("error %v is not ErrUnexpectedContentType", err)
			}

			var cerr *ContentTypeError
			if !errors.As(err, &cerr) {
				t.Fatalf("error %T is not *ContentTypeError", err)
			}
			if cerr.Expected != tt.expected {
				t.Errorf("Expected = %q, want %q", cerr.Expected, tt.expected)
			}

			var merr *MotisError
			if got := errors.As(err, &merr); got != tt.wantMotis {
				t.Errorf("errors.As(*MotisError) = %v, want %v", got, tt.wantMotis)
			}
			if tt.wantMotis && !strings.Contains(err.Error(), "universe not found") {
				t.Errorf("error %q does not carry the backend reason", err)
			}
		})
	}
}
