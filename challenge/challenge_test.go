// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
)

// captureSender records every code sent, keyed by recipient
type captureSender struct {
	mu    sync.Mutex
	codes map[string][]string
	fail  error
}

func (s *captureSender) Send(ctx context.Context, to, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.codes == nil {
		s.codes = make(map[string][]string)
	}
	s.codes[to] = append(s.codes[to], code)
	return nil
}

func (s *captureSender) last(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.codes[to]
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}

func newTestRegistry(cfg Config) (*Registry[string], *schedule.Manual, *captureSender) {
	clock := schedule.NewManual(time.Date(2026, 11, 24, 9, 0, 0, 0, time.UTC))
	sender := &captureSender{}
	return NewRegistry[string](cfg, clock, sender), clock, sender
}

func TestBeginIssuesCode(t *testing.T) {
	reg, clock, sender := newTestRegistry(DefaultConfig)

	issued, err := reg.Begin(context.Background(), "a@x", "payload")
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if issued.FlowID == "" {
		t.Error("Begin() returned empty flow ID")
	}
	if issued.ResendIn != 60 {
		t.Errorf("ResendIn = %d, want 60", issued.ResendIn)
	}
	if want := clock.Now().Add(5 * time.Minute); !issued.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, want)
	}
	if code := sender.last("a@x"); len(code) != 6 {
		t.Errorf("sent code %q, want 6 digits", code)
	}
	if reg.State(issued.FlowID) != StateAwaiting {
		t.Errorf("State() = %s, want %s", reg.State(issued.FlowID), StateAwaiting)
	}
}

func TestSubmit(t *testing.T) {
	reg, _, sender := newTestRegistry(DefaultConfig)
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	code := sender.last("a@x")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := reg.Submit(ctx, issued.FlowID, wrong)
	if !models.IsKind(err, models.KindAuth) {
		t.Fatalf("wrong code: error = %v, want auth error", err)
	}
	if reg.State(issued.FlowID) != StateAwaiting {
		t.Error("flow should stay awaiting after a wrong code")
	}

	payload, err := reg.Submit(ctx, issued.FlowID, code)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if payload != "payload" {
		t.Errorf("payload = %q, want %q", payload, "payload")
	}
	if reg.Len() != 0 {
		t.Error("granted flow should be removed from the registry")
	}

	_, err = reg.Submit(ctx, issued.FlowID, code)
	if !models.IsKind(err, models.KindNotFound) {
		t.Errorf("reuse of granted flow: error = %v, want not found", err)
	}
}

func TestResendCooldown(t *testing.T) {
	reg, clock, sender := newTestRegistry(DefaultConfig)
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	first := sender.last("a@x")

	for i := 0; i < 59; i++ {
		if _, err := reg.Resend(ctx, issued.FlowID); !errors.Is(err, ErrCooldownActive) {
			t.Fatalf("second %d: Resend() error = %v, want %v", i, err, ErrCooldownActive)
		}
		clock.Advance(time.Second)
	}

	if remaining, _ := reg.Remaining(issued.FlowID); remaining != 1 {
		t.Fatalf("Remaining() = %d after 59s, want 1", remaining)
	}
	if _, err := reg.Resend(ctx, issued.FlowID); !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("Resend() at 1s remaining: error = %v, want cooldown", err)
	}

	clock.Advance(time.Second)
	again, err := reg.Resend(ctx, issued.FlowID)
	if err != nil {
		t.Fatalf("Resend() at 0: error = %v", err)
	}
	if again.ResendIn != 60 {
		t.Errorf("countdown not restarted: ResendIn = %d", again.ResendIn)
	}
	if again.FlowID != issued.FlowID {
		t.Error("Resend() should keep the same flow")
	}

	second := sender.last("a@x")
	if first != second {
		if _, err := reg.Submit(ctx, issued.FlowID, first); err == nil {
			t.Error("superseded code should no longer be accepted")
		}
	}
	if _, err := reg.Submit(ctx, issued.FlowID, second); err != nil {
		t.Errorf("Submit() with new code error = %v", err)
	}
}

func TestAbandonCancelsTimers(t *testing.T) {
	reg, clock, _ := newTestRegistry(DefaultConfig)

	issued, _ := reg.Begin(context.Background(), "a@x", "payload")
	if clock.Pending() != 2 {
		t.Fatalf("Pending() = %d, want countdown and expiry timers", clock.Pending())
	}

	if !reg.Abandon(issued.FlowID) {
		t.Fatal("Abandon() should report the flow existed")
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d after abandon, want 0", clock.Pending())
	}
	if reg.State(issued.FlowID) != StateIdle {
		t.Error("abandoned flow should be idle")
	}
	if reg.Abandon(issued.FlowID) {
		t.Error("second Abandon() should return false")
	}
}

func TestGrantCancelsTimers(t *testing.T) {
	reg, clock, sender := newTestRegistry(DefaultConfig)
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	clock.Advance(10 * time.Second)
	if _, err := reg.Submit(ctx, issued.FlowID, sender.last("a@x")); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d after grant, want 0", clock.Pending())
	}
}

func TestCodeExpires(t *testing.T) {
	reg, clock, sender := newTestRegistry(DefaultConfig)
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	code := sender.last("a@x")

	clock.Advance(5 * time.Minute)
	if reg.Len() != 0 {
		t.Error("expired flow should be swept")
	}
	if _, err := reg.Submit(ctx, issued.FlowID, code); err == nil {
		t.Error("Submit() after expiry should fail")
	}
}

func TestMaxAttempts(t *testing.T) {
	reg, _, sender := newTestRegistry(Config{Cooldown: time.Minute, TTL: time.Hour, MaxAttempts: 3})
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	code := sender.last("a@x")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 2; i++ {
		if _, err := reg.Submit(ctx, issued.FlowID, wrong); err == nil {
			t.Fatal("wrong code accepted")
		}
	}
	_, err := reg.Submit(ctx, issued.FlowID, wrong)
	if !models.IsKind(err, models.KindAuth) {
		t.Fatalf("third attempt: error = %v, want auth error", err)
	}
	if reg.State(issued.FlowID) != StateIdle {
		t.Error("flow should reset to idle after max attempts")
	}
	if _, err := reg.Submit(ctx, issued.FlowID, code); !models.IsKind(err, models.KindNotFound) {
		t.Errorf("correct code after reset: error = %v, want not found", err)
	}
}

func TestSenderFailure(t *testing.T) {
	reg, _, sender := newTestRegistry(DefaultConfig)
	sender.fail = errors.New("gateway down")

	if _, err := reg.Begin(context.Background(), "a@x", "payload"); err == nil {
		t.Fatal("Begin() should fail when the code cannot be sent")
	}
	if reg.Len() != 0 {
		t.Error("failed Begin() should not leave a flow behind")
	}
}

func TestUnknownFlow(t *testing.T) {
	reg, _, _ := newTestRegistry(DefaultConfig)
	ctx := context.Background()

	if _, err := reg.Submit(ctx, "missing", "123456"); !models.IsKind(err, models.KindNotFound) {
		t.Errorf("Submit() error = %v, want not found", err)
	}
	if _, err := reg.Resend(ctx, "missing"); !models.IsKind(err, models.KindNotFound) {
		t.Errorf("Resend() error = %v, want not found", err)
	}
}

func TestResendKeepsAttemptsAndExpiry(t *testing.T) {
	reg, clock, sender := newTestRegistry(Config{Cooldown: time.Second, TTL: time.Minute, MaxAttempts: 3})
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	wrong := func() string {
		if sender.last("a@x") == "000000" {
			return "111111"
		}
		return "000000"
	}

	for i := 0; i < 2; i++ {
		if _, err := reg.Submit(ctx, issued.FlowID, wrong()); err == nil {
			t.Fatal("wrong code accepted")
		}
	}

	clock.Advance(time.Second)
	again, err := reg.Resend(ctx, issued.FlowID)
	if err != nil {
		t.Fatalf("Resend() error = %v", err)
	}
	if !again.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("Resend() moved expiry from %v to %v", issued.ExpiresAt, again.ExpiresAt)
	}

	// The third wrong code overall exhausts the flow
	if _, err := reg.Submit(ctx, issued.FlowID, wrong()); !models.IsKind(err, models.KindAuth) {
		t.Fatalf("third attempt: error = %v, want auth error", err)
	}
	if reg.State(issued.FlowID) != StateIdle {
		t.Error("flow should reset to idle after max attempts across resends")
	}
}

func TestResendDoesNotExtendLifetime(t *testing.T) {
	reg, clock, sender := newTestRegistry(Config{Cooldown: time.Second, TTL: time.Minute, MaxAttempts: 5})
	ctx := context.Background()

	issued, _ := reg.Begin(ctx, "a@x", "payload")
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		if _, err := reg.Resend(ctx, issued.FlowID); err != nil {
			t.Fatalf("Resend() %d error = %v", i, err)
		}
	}

	clock.Advance(10 * time.Second)
	if reg.Len() != 0 {
		t.Error("flow should expire a minute after Begin regardless of resends")
	}
	if _, err := reg.Submit(ctx, issued.FlowID, sender.last("a@x")); err == nil {
		t.Error("Submit() after expiry should fail")
	}
}
