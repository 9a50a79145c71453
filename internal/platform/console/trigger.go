// Package console renders the wallet trigger on a terminal. Pressing Enter
// activates it.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fitstack/walletpay/internal/checkout"
)

// Renderer draws a single-line trigger and reads activations from in.
type Renderer struct {
	in    io.Reader
	out   io.Writer
	label string

	mu      sync.Mutex
	trigger *Trigger
}

// NewRenderer creates a console renderer.
func NewRenderer(in io.Reader, out io.Writer, label string) *Renderer {
	if label == "" {
		label = "Buy with Google Pay"
	}
	return &Renderer{in: in, out: out, label: label}
}

// RenderTrigger prints the trigger. Call Run to start reading activations.
func (r *Renderer) RenderTrigger(onActivate func()) (checkout.Trigger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trigger != nil {
		return r.trigger, nil
	}
	t := &Trigger{out: r.out, label: r.label, onActivate: onActivate, enabled: true}
	t.draw()
	r.trigger = t
	return t, nil
}

// Run reads lines from in; each line presses the trigger while it is enabled.
// It returns when in is exhausted, ctx is cancelled, or stop returns true.
func (r *Renderer) Run(ctx context.Context, stop func() bool) error {
	scanner := bufio.NewScanner(r.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.mu.Lock()
		t := r.trigger
		r.mu.Unlock()
		if t == nil {
			continue
		}
		t.press()
		if stop != nil && stop() {
			return nil
		}
	}
	return scanner.Err()
}

// Trigger is the rendered console button.
type Trigger struct {
	out        io.Writer
	label      string
	onActivate func()

	mu      sync.Mutex
	enabled bool
}

// SetEnabled redraws the trigger in its new state.
func (t *Trigger) SetEnabled(enabled bool) {
	t.mu.Lock()
	changed := t.enabled != enabled
	t.enabled = enabled
	t.mu.Unlock()
	if changed {
		t.draw()
	}
}

func (t *Trigger) press() {
	t.mu.Lock()
	enabled := t.enabled
	t.mu.Unlock()
	if !enabled {
		fmt.Fprintln(t.out, "  (payment in progress)")
		return
	}
	t.onActivate()
}

func (t *Trigger) draw() {
	t.mu.Lock()
	enabled := t.enabled
	t.mu.Unlock()
	if enabled {
		fmt.Fprintf(t.out, "[ %s ]  press Enter to pay\n", t.label)
		return
	}
	fmt.Fprintf(t.out, "[ %s ]  (disabled)\n", t.label)
}
