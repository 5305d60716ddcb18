// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/wardvote/auth"
	"github.com/danielhkuo/wardvote/models"
	"github.com/danielhkuo/wardvote/schedule"
	"github.com/google/uuid"
)

// ErrCooldownActive is returned by Resend while the countdown is running
var ErrCooldownActive = &models.Error{Kind: models.KindCooldown, Message: "cooldown active"}

// State of a challenge flow
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting_challenge"
	StateGranted  State = "granted"
)

// Config controls code lifetime and retry policy
type Config struct {
	Cooldown    time.Duration
	TTL         time.Duration
	MaxAttempts int // 0 disables the limit
}

// DefaultConfig matches the production settings
var DefaultConfig = Config{
	Cooldown:    60 * time.Second,
	TTL:         5 * time.Minute,
	MaxAttempts: 5,
}

// Sender delivers a code to the subject of a flow
type Sender interface {
	Send(ctx context.Context, to, code string) error
}

// LogSender writes codes to the structured log in place of SMS/e-mail delivery
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, code string) error {
	slog.InfoContext(ctx, "challenge code issued", "to", to, "code", code)
	return nil
}

// Issued describes a freshly sent code
type Issued struct {
	FlowID    string
	ExpiresAt time.Time
	ResendIn  int // seconds
}

type flow[T any] struct {
	id        string
	to        string
	payload   T
	code      string
	attempts  int
	expiresAt time.Time
	remaining int
	gen       int
	tick      schedule.Timer
	expiry    schedule.Timer
}

// Registry holds in-flight challenge flows. A flow exists only while it is
// awaiting a code; absence means the subject is back at Idle.
type Registry[T any] struct {
	mu       sync.Mutex
	flows    map[string]*flow[T]
	cfg      Config
	sched    schedule.Scheduler
	sender   Sender
	generate func() (string, error)
}

func NewRegistry[T any](cfg Config, sched schedule.Scheduler, sender Sender) *Registry[T] {
	if sched == nil {
		sched = schedule.Real{}
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Registry[T]{
		flows:    make(map[string]*flow[T]),
		cfg:      cfg,
		sched:    sched,
		sender:   sender,
		generate: auth.GenerateChallengeCode,
	}
}

// Begin opens a flow for payload and sends the first code to `to`
func (r *Registry[T]) Begin(ctx context.Context, to string, payload T) (Issued, error) {
	f := &flow[T]{
		id:      uuid.NewString(),
		to:      to,
		payload: payload,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f.expiresAt = r.sched.Now().Add(r.cfg.TTL)
	if err := r.issueLocked(ctx, f); err != nil {
		return Issued{}, err
	}
	if r.cfg.TTL > 0 {
		f.expiry = r.sched.After(r.cfg.TTL, func() { r.expire(f.id) })
	}
	r.flows[f.id] = f
	return r.issuedLocked(f), nil
}

// Submit checks code against the last one issued for the flow. On success the
// flow reaches Granted, its timers are cancelled and the payload is returned.
func (r *Registry[T]) Submit(ctx context.Context, flowID, code string) (T, error) {
	var zero T

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[flowID]
	if !ok {
		return zero, models.NotFoundError("challenge not found")
	}

	if !r.sched.Now().Before(f.expiresAt) {
		r.discardLocked(f)
		return zero, models.AuthError("code expired")
	}

	if code != f.code {
		f.attempts++
		if r.cfg.MaxAttempts > 0 && f.attempts >= r.cfg.MaxAttempts {
			slog.WarnContext(ctx, "challenge attempts exhausted", "flow_id", f.id, "attempts", f.attempts)
			r.discardLocked(f)
			return zero, models.AuthError("too many attempts")
		}
		return zero, models.AuthError("invalid code")
	}

	r.discardLocked(f)
	return f.payload, nil
}

// Resend issues a new code once the countdown has reached zero. The flow
// keeps its attempt count and its original expiry.
func (r *Registry[T]) Resend(ctx context.Context, flowID string) (Issued, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[flowID]
	if !ok {
		return Issued{}, models.NotFoundError("challenge not found")
	}
	if f.remaining > 0 {
		return Issued{}, ErrCooldownActive
	}

	if err := r.issueLocked(ctx, f); err != nil {
		r.discardLocked(f)
		return Issued{}, err
	}
	return r.issuedLocked(f), nil
}

// Abandon discards the flow and cancels its timers
func (r *Registry[T]) Abandon(flowID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[flowID]
	if !ok {
		return false
	}
	r.discardLocked(f)
	return true
}

// State reports where a flow is. Flows that have finished or never existed
// are Idle; Granted is only observable through Submit's result.
func (r *Registry[T]) State(flowID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flows[flowID]; ok {
		return StateAwaiting
	}
	return StateIdle
}

// Remaining returns the seconds left on the resend countdown
func (r *Registry[T]) Remaining(flowID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[flowID]
	if !ok {
		return 0, false
	}
	return f.remaining, true
}

// Len returns the number of flows awaiting a code
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// issueLocked generates and sends a new code and restarts the resend
// countdown. Attempts and the flow's expiry carry over from earlier codes.
func (r *Registry[T]) issueLocked(ctx context.Context, f *flow[T]) error {
	code, err := r.generate()
	if err != nil {
		return err
	}
	if err := r.sender.Send(ctx, f.to, code); err != nil {
		return fmt.Errorf("failed to send challenge code: %w", err)
	}

	if f.tick != nil {
		f.tick.Stop()
		f.tick = nil
	}
	f.gen++
	f.code = code
	f.remaining = int(r.cfg.Cooldown / time.Second)

	gen := f.gen
	if f.remaining > 0 {
		f.tick = r.sched.After(time.Second, func() { r.countdown(f.id, gen) })
	}
	return nil
}

func (r *Registry[T]) issuedLocked(f *flow[T]) Issued {
	return Issued{
		FlowID:    f.id,
		ExpiresAt: f.expiresAt,
		ResendIn:  f.remaining,
	}
}

// countdown decrements once per second until zero
func (r *Registry[T]) countdown(flowID string, gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[flowID]
	if !ok || f.gen != gen {
		return
	}
	f.remaining--
	if f.remaining > 0 {
		f.tick = r.sched.After(time.Second, func() { r.countdown(flowID, gen) })
	} else {
		f.tick = nil
	}
}

func (r *Registry[T]) expire(flowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[flowID]
	if !ok {
		return
	}
	slog.Info("challenge expired", "flow_id", flowID)
	r.discardLocked(f)
}

func (r *Registry[T]) discardLocked(f *flow[T]) {
	r.stopTimersLocked(f)
	delete(r.flows, f.id)
}

func (r *Registry[T]) stopTimersLocked(f *flow[T]) {
	if f.tick != nil {
		f.tick.Stop()
		f.tick = nil
	}
	if f.expiry != nil {
		f.expiry.Stop()
		f.expiry = nil
	}
}
