package checkout

import (
	"errors"
	"sync"
)

// Trigger is a rendered payment button.
type Trigger interface {
	SetEnabled(enabled bool)
}

// TriggerRenderer draws a trigger and calls onActivate each time it is pressed.
type TriggerRenderer interface {
	RenderTrigger(onActivate func()) (Trigger, error)
}

// ButtonPresenter renders at most one trigger per checkout.
type ButtonPresenter struct {
	renderer TriggerRenderer
	fallback func()

	mu      sync.Mutex
	trigger Trigger
}

// NewButtonPresenter creates a presenter. fallback runs when the wallet is not
// available and may be nil.
func NewButtonPresenter(renderer TriggerRenderer, fallback func()) *ButtonPresenter {
	return &ButtonPresenter{renderer: renderer, fallback: fallback}
}

// Present renders the trigger when ready is true. Repeated calls return the
// trigger rendered first; onActivate is only wired on that first render.
func (p *ButtonPresenter) Present(ready bool, onActivate func()) (Trigger, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !ready {
		if p.trigger == nil && p.fallback != nil {
			p.fallback()
		}
		return p.trigger, nil
	}
	if p.trigger != nil {
		return p.trigger, nil
	}
	if onActivate == nil {
		return nil, errors.New("activation handler is required")
	}

	trigger, err := p.renderer.RenderTrigger(onActivate)
	if err != nil {
		return nil, err
	}
	p.trigger = trigger
	return trigger, nil
}

// Trigger returns the rendered trigger, or nil.
func (p *ButtonPresenter) Trigger() Trigger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trigger
}
