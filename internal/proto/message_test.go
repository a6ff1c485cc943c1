package proto

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, in Inbound)
	}{
		{
			name: "authenticate",
			data: `{"type":"authenticate","username":"alice","token":"abc"}`,
			check: func(t *testing.T, in Inbound) {
				if in.Type != InboundTypeAuthenticate || in.Username != "alice" || in.Token != "abc" {
					t.Fatalf("unexpected frame: %+v", in)
				}
			},
		},
		{
			name: "switch room",
			data: `{"type":"switch_room","oldRoom":"general","newRoom":"tech"}`,
			check: func(t *testing.T, in Inbound) {
				if in.OldRoom != "general" || in.NewRoom != "tech" {
					t.Fatalf("unexpected frame: %+v", in)
				}
			},
		},
		{
			name: "payload passes through untouched",
			data: `{"type":"send_message","room":"general","payload":{"cipher":"AAE=","n":[1,2]},"timestamp":"2024-01-01T00:00:00.000Z"}`,
			check: func(t *testing.T, in Inbound) {
				if string(in.Payload) != `{"cipher":"AAE=","n":[1,2]}` {
					t.Fatalf("payload changed: %s", in.Payload)
				}
				if string(in.Timestamp) != `"2024-01-01T00:00:00.000Z"` {
					t.Fatalf("timestamp changed: %s", in.Timestamp)
				}
			},
		},
		{name: "not json", data: `hello`, wantErr: true},
		{name: "wrong field type", data: `{"type":"join","room":5}`, wantErr: true},
		{name: "array", data: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInbound([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", in)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			tt.check(t, in)
		})
	}
}

func TestDecodeInboundMissingType(t *testing.T) {
	if _, err := DecodeInbound([]byte(`{"room":"general"}`)); !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 3600))
	if got := FormatTime(ts); got != "2024-05-06T06:08:09.123Z" {
		t.Fatalf("unexpected format: %s", got)
	}
}
