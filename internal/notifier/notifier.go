// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package notifier implements the change feed of the local record store.
//
// Every committed local mutation is published as a [models.ChangeEvent] to
// all live subscribers. Delivery to a subscriber is in publish order; a slow
// subscriber applies back-pressure to the publisher instead of losing events.
package notifier

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-studio-sync/models"
)

// DefaultBuffer is the per-subscriber channel capacity used by [New] when a
// non-positive buffer is requested.
const DefaultBuffer = 256

// ErrClosed is returned by [Notifier.Publish] after [Notifier.Close].
var ErrClosed = errors.New("notifier is closed")

type subscription struct {
	ch   chan models.ChangeEvent
	done chan struct{}
	once sync.Once
}

func (s *subscription) cancel() {
	s.once.Do(func() { close(s.done) })
}

// Notifier fans change events out to subscribers.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	buffer int
	closed bool
}

// New creates a notifier whose subscriber channels hold up to buffer events.
func New(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Notifier{
		subs:   make(map[uint64]*subscription),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber and returns its event channel. The
// subscription ends when ctx is done. The channel is never closed, so
// consumers must also select on ctx.Done().
func (n *Notifier) Subscribe(ctx context.Context) <-chan models.ChangeEvent {
	sub := &subscription{
		ch:   make(chan models.ChangeEvent, n.buffer),
		done: make(chan struct{}),
	}

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	if n.closed {
		sub.cancel()
	} else {
		n.subs[id] = sub
	}
	n.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-sub.done:
		}
		n.unsubscribe(id)
	}()

	return sub.ch
}

// Publish delivers ev to every subscriber. It blocks while a subscriber's
// buffer is full and returns ctx.Err() if ctx ends first.
func (n *Notifier) Publish(ctx context.Context, ev models.ChangeEvent) error {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return ErrClosed
	}
	subs := make([]*subscription, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.ch <- ev:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close ends every subscription. Later publishes fail with [ErrClosed].
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, s := range n.subs {
		s.cancel()
		delete(n.subs, id)
	}
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.subs[id]; ok {
		s.cancel()
		delete(n.subs, id)
	}
}
