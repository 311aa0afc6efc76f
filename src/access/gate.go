// Package access implements the owner-only switch consulted before every
// command is dispatched.
package access

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/metrics"
)

var (
	ErrNotOwner       = errors.New("only the owner can change access")
	ErrUnknownHandler = errors.New("handler does not exist")
)

// Gate is a process-wide policy: a restricted flag plus the handlers opened
// to everyone while restricted. It starts unrestricted and is never persisted.
type Gate struct {
	mu         sync.RWMutex
	owner      int64
	restricted bool
	known      map[string]struct{}
	enabled    map[string]struct{}
	metrics    *metrics.Metrics
}

// NewGate creates a gate for owner. handlers are the names EnableHandler
// accepts.
func NewGate(owner int64, handlers []string, m *metrics.Metrics) *Gate {
	known := make(map[string]struct{}, len(handlers))
	for _, h := range handlers {
		known[h] = struct{}{}
	}
	return &Gate{
		owner:   owner,
		known:   known,
		enabled: make(map[string]struct{}),
		metrics: m,
	}
}

func (g *Gate) IsOwner(userID int64) bool {
	return userID == g.owner
}

// Allow reports whether userID may run handler right now
func (g *Gate) Allow(userID int64, handler string) bool {
	if g.IsOwner(userID) {
		return true
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.restricted {
		return true
	}
	if _, ok := g.enabled[handler]; ok {
		return true
	}

	g.metrics.Denied(handler)
	logger.Info().Int64("user_id", userID).Str("handler", handler).Msg("Command refused by access gate")
	return false
}

func (g *Gate) Restrict(userID int64) error {
	return g.setRestricted(userID, true)
}

func (g *Gate) Unrestrict(userID int64) error {
	return g.setRestricted(userID, false)
}

func (g *Gate) setRestricted(userID int64, on bool) error {
	if !g.IsOwner(userID) {
		return ErrNotOwner
	}

	g.mu.Lock()
	g.restricted = on
	g.mu.Unlock()

	logger.Info().Bool("restricted", on).Msg("Owner-only mode changed")
	return nil
}

// EnableHandler opens handler to non-owners while restricted. It affects
// calls made after it returns.
func (g *Gate) EnableHandler(userID int64, handler string) error {
	if !g.IsOwner(userID) {
		return ErrNotOwner
	}
	if _, ok := g.known[handler]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHandler, handler)
	}

	g.mu.Lock()
	g.enabled[handler] = struct{}{}
	g.mu.Unlock()

	logger.Info().Str("handler", handler).Msg("Handler enabled for everyone")
	return nil
}

func (g *Gate) Restricted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.restricted
}

// Enabled lists the opened handlers, sorted
func (g *Gate) Enabled() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.enabled))
	for h := range g.enabled {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
