package mbot

import (
	"sync"
	"time"

	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

// Callback receives the value of a resolved request.
type Callback func(protocol.Value)

type pendingRequest struct {
	callback Callback
	since    time.Time
}

// Pending tracks requests waiting for a response, at most one per id.
type Pending struct {
	lock     sync.Mutex
	requests [256]*pendingRequest
	count    int
}

// Register adds a request unless one with the same id is pending.
// It returns false if the id is already pending.
func (p *Pending) Register(id byte, cb Callback) bool {
	if cb == nil {
		cb = func(protocol.Value) {}
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.requests[id] != nil {
		return false
	}
	p.requests[id] = &pendingRequest{callback: cb, since: time.Now()}
	p.count++
	return true
}

// Resolve removes the pending request with id and invokes its callback
// with v. It returns false if nothing is pending with id.
func (p *Pending) Resolve(id byte, v protocol.Value) bool {
	req := p.take(id)
	if req == nil {
		return false
	}
	req.callback(v)
	return true
}

// Cancel removes the pending request with id without invoking it.
func (p *Pending) Cancel(id byte) bool {
	return p.take(id) != nil
}

// Expire removes requests registered before the given time and returns
// the number removed.
func (p *Pending) Expire(before time.Time) (n int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for id, req := range p.requests {
		if req != nil && req.since.Before(before) {
			p.requests[id] = nil
			p.count--
			n++
		}
	}
	return
}

// Reset removes all pending requests.
func (p *Pending) Reset() {
	p.lock.Lock()
	p.requests = [256]*pendingRequest{}
	p.count = 0
	p.lock.Unlock()
}

// Len returns the number of pending requests.
func (p *Pending) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.count
}

func (p *Pending) take(id byte) *pendingRequest {
	p.lock.Lock()
	defer p.lock.Unlock()
	req := p.requests[id]
	if req != nil {
		p.requests[id] = nil
		p.count--
	}
	return req
}
