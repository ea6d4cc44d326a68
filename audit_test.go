package clientauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)
	defer d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout, Success: true})

	select {
	case ev := <-sink.Events():
		if ev.EventType != AuditLogout || !ev.Success {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	// nil receivers are safe.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(blocked)
		d.Close()
	}()

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditValidate})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, AuditEvent) {
	<-s.release
}

func TestDispatcherCloseDrains(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: false}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditValidate, Success: true})
	}
	d.Close()

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 5 {
		t.Fatalf("drained %d events, want 5", lines)
	}
}

func TestJSONWriterSinkShape(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventType: AuditTokenFromURL,
		Success:   true,
		Metadata:  map[string]string{"source": "url"},
	})

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.EventType != AuditTokenFromURL || decoded.Metadata["source"] != "url" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestProviderAuditTrail(t *testing.T) {
	sink := NewChannelSink(32)
	cfg := validTestConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 32, DropIfFull: false}

	p := buildProvider(t, cfg, func(b *Builder) {
		b.WithAuditSink(sink)
	})

	ctx := WithRequestID(WithOrigin(context.Background(), "https://app.example"), "req-1")

	// Logout against an unreachable provider still audits.
	_ = p.Logout(ctx)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.EventType != AuditLogout {
				continue
			}
			if ev.RequestID != "req-1" || ev.Origin != "https://app.example" {
				t.Fatalf("context fields missing: %+v", ev)
			}
			if ev.ID == "" {
				t.Fatal("event ID not assigned")
			}
			return
		case <-deadline:
			t.Fatal("logout audit event not observed")
		}
	}
}
