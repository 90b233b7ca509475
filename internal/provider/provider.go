// Package provider delivers notifications over concrete channels.
//
// A Provider reports delivery outcome as a bool and never returns an error
// or panics across its boundary: failures are logged and reported as false,
// and the delivery pipeline turns them into retries.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

// ErrUnknownChannel is returned by Resolve when no provider is registered for a channel.
var ErrUnknownChannel = errors.New("no provider registered for channel")

// Provider delivers a notification over one channel.
type Provider interface {
	Send(ctx context.Context, n model.Notification) bool
}

// Func adapts an ordinary function to a Provider.
type Func func(ctx context.Context, n model.Notification) bool

// Send calls f(ctx, n).
func (f Func) Send(ctx context.Context, n model.Notification) bool {
	return f(ctx, n)
}

// Registry maps channels to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[model.Channel]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[model.Channel]Provider)}
}

// Register makes p the provider for channel c, replacing any previous one.
func (r *Registry) Register(c model.Channel, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[c] = p
}

// Resolve returns the provider registered for c. The returned provider
// recovers panics of the underlying one and reports them as failed sends.
func (r *Registry) Resolve(c model.Channel) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[c]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, c)
	}

	return guarded{channel: c, p: p}, nil
}

// Channels returns the registered channels in lexical order.
func (r *Registry) Channels() []model.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Channel, 0, len(r.providers))
	for c := range r.providers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

type guarded struct {
	channel model.Channel
	p       Provider
}

func (g guarded) Send(ctx context.Context, n model.Notification) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Logger.Error().
				Str("channel", string(g.channel)).
				Str("id", n.ID.String()).
				Interface("panic", r).
				Msg("provider panicked")
			ok = false
		}
	}()

	return g.p.Send(ctx, n)
}
