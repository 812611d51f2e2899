package testutil

import (
	"fmt"
	"io"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// Rendered is one recorded call to Views.Render.
type Rendered struct {
	Name    string
	Binding fiber.Map
	Layouts []string
}

// RecordingViews is a fiber.Views that records what handlers render instead
// of executing templates.
type RecordingViews struct {
	mu    sync.Mutex
	calls []Rendered
}

// NewRecordingViews returns an empty RecordingViews.
func NewRecordingViews() *RecordingViews {
	return &RecordingViews{}
}

// Load implements fiber.Views.
func (v *RecordingViews) Load() error { return nil }

// Render implements fiber.Views. It writes the template name to w.
func (v *RecordingViews) Render(w io.Writer, name string, binding interface{}, layouts ...string) error {
	m, _ := binding.(fiber.Map)
	if m == nil {
		if raw, ok := binding.(map[string]interface{}); ok {
			m = fiber.Map(raw)
		}
	}

	v.mu.Lock()
	v.calls = append(v.calls, Rendered{Name: name, Binding: m, Layouts: layouts})
	v.mu.Unlock()

	_, err := fmt.Fprintf(w, "template:%s", name)
	return err
}

// Last returns the most recent render, or false when nothing was rendered.
func (v *RecordingViews) Last() (Rendered, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.calls) == 0 {
		return Rendered{}, false
	}
	return v.calls[len(v.calls)-1], true
}

// Count returns the number of recorded renders.
func (v *RecordingViews) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.calls)
}

// Reset discards recorded renders.
func (v *RecordingViews) Reset() {
	v.mu.Lock()
	v.calls = nil
	v.mu.Unlock()
}
