// Package resolver maps camera models to their stream URLs.
package resolver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// UnsupportedModelError is returned when no formatting rule exists for
// a camera model. It is a per-camera configuration error: the caller
// skips that camera and keeps launching the rest.
type UnsupportedModelError struct {
	Model string
}

func (e UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported camera model %q", e.Model)
}

// Rule formats a stream URL for a camera at the given address.
type Rule func(address string) string

// Resolver maps camera models to stream URLs. Model matching is
// case-insensitive. Safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// New returns a Resolver with the built-in vendor rules registered.
func New() *Resolver {
	r := &Resolver{rules: make(map[string]Rule)}

	r.Register("Reolink", func(addr string) string {
		return fmt.Sprintf("rtsp://%s:554/h264Preview_01_main", addr)
	})
	r.Register("Amcrest", func(addr string) string {
		return fmt.Sprintf("rtsp://%s:554/cam/realmonitor?channel=1&subtype=0", addr)
	})
	r.Register("Dahua", func(addr string) string {
		return fmt.Sprintf("rtsp://%s:554/cam/realmonitor?channel=1&subtype=0", addr)
	})
	r.Register("Hikvision", func(addr string) string {
		return fmt.Sprintf("rtsp://%s:554/Streaming/Channels/101", addr)
	})
	r.Register("Axis", func(addr string) string {
		return fmt.Sprintf("rtsp://%s/axis-media/media.amp", addr)
	})

	return r
}

// Register adds or replaces the formatting rule for a model.
func (r *Resolver) Register(model string, rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[strings.ToLower(model)] = rule
}

// Resolve returns the stream URL for a camera model at an address.
// Returns UnsupportedModelError if no rule is registered for the model.
func (r *Resolver) Resolve(model, address string) (string, error) {
	r.mu.RLock()
	rule, ok := r.rules[strings.ToLower(model)]
	r.mu.RUnlock()

	if !ok {
		return "", UnsupportedModelError{Model: model}
	}
	return rule(address), nil
}

// Models returns the registered model names, sorted.
func (r *Resolver) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.rules))
	for m := range r.rules {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
