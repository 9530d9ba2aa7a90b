package actor

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/mafiarena/mafiarena/core"
	"github.com/mafiarena/mafiarena/logging"
)

// fallbackSpeech is the deterministic substitute when a speech decision
// cannot be obtained.
const fallbackSpeech = "I have nothing to add at this time."

// DeciderOptions configures the retry-then-fallback wrapper.
type DeciderOptions struct {
	// Retries is how many times a failed call is retried before the fallback
	// decision is substituted.
	Retries int
	// Timeout bounds each individual attempt. A timeout is treated exactly
	// like an invalid decision.
	Timeout time.Duration
	// Rand drives fallback target selection; seed it for deterministic
	// replay.
	Rand   *rand.Rand
	Logger logging.Logger
}

// Decider wraps a Gateway with the retry-then-substitute policy: each
// decision is attempted up to Retries+1 times with a per-attempt timeout,
// then a deterministic fallback (generic speech, random legal vote, random
// legal night target) is returned instead. The phase machine therefore never
// stalls on a failing actor; it only learns whether the fallback fired so it
// can record that in the event log.
type Decider struct {
	gw      Gateway
	retries int
	timeout time.Duration
	rng     *rand.Rand
	logger  logging.Logger
}

// NewDecider wraps gw with the fallback policy.
func NewDecider(gw Gateway, optFns ...func(o *DeciderOptions)) *Decider {
	opts := DeciderOptions{
		Retries: 2,
		Timeout: 45 * time.Second,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Decider{
		gw:      gw,
		retries: opts.Retries,
		timeout: opts.Timeout,
		rng:     opts.Rand,
		logger:  opts.Logger,
	}
}

// Speech returns a speech decision and whether the fallback was used.
func (d *Decider) Speech(ctx context.Context, gc Context) (*SpeechDecision, bool) {
	decision, err := attempt(ctx, d, gc, "speech", d.gw.Speech)
	if err == nil {
		return decision, false
	}
	d.logger.Warn("speech fallback for %s: %v", gc.Self.Name, err)
	return &SpeechDecision{Content: fallbackSpeech}, true
}

// Vote returns a vote decision and whether the fallback was used. The
// fallback picks a random legal target, or a skip when skips are allowed.
func (d *Decider) Vote(ctx context.Context, gc Context) (*VoteDecision, bool) {
	decision, err := attempt(ctx, d, gc, "vote", d.gw.Vote)
	if err == nil {
		return decision, false
	}
	d.logger.Warn("vote fallback for %s: %v", gc.Self.Name, err)

	choices := gc.TargetNames()
	if gc.AllowSkip {
		choices = append(choices, core.VoteSkip)
	}
	if len(choices) == 0 {
		return &VoteDecision{Vote: core.VoteSkip, Reasoning: "fallback"}, true
	}
	return &VoteDecision{Vote: choices[d.rng.Intn(len(choices))], Reasoning: "fallback"}, true
}

// NightAction returns a night decision and whether the fallback was used.
// The fallback picks a random legal target; nil is returned only when no
// legal target exists.
func (d *Decider) NightAction(ctx context.Context, gc Context) (*NightDecision, bool) {
	decision, err := attempt(ctx, d, gc, string(gc.Action), d.gw.NightAction)
	if err == nil {
		return decision, false
	}
	d.logger.Warn("%s fallback for %s: %v", gc.Action, gc.Self.Name, err)

	targets := gc.TargetNames()
	if len(targets) == 0 {
		return nil, true
	}
	return &NightDecision{Target: targets[d.rng.Intn(len(targets))], Reasoning: "fallback"}, true
}

// attempt runs one gateway method up to retries+1 times with a per-attempt
// timeout, mapping deadline errors to ActorTimeoutError for the audit trail.
func attempt[T any](
	ctx context.Context,
	d *Decider,
	gc Context,
	action string,
	fn func(context.Context, Context) (*T, error),
) (*T, error) {
	var lastErr error
	for i := 0; i <= d.retries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		decision, err := fn(attemptCtx, gc)
		cancel()
		if err == nil {
			return decision, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = &core.ActorTimeoutError{Actor: gc.Self.Name, Action: action, Timeout: d.timeout}
		}
		lastErr = err
	}
	return nil, lastErr
}
