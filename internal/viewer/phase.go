package viewer

import (
	"errors"
	"fmt"
	"sync"
)

// Phase is the viewer's load state. A viewer starts in PhaseLoading and
// moves exactly once, to PhaseLoaded or PhaseFailed.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ErrInvalidTransition is returned for any move other than out of PhaseLoading.
var ErrInvalidTransition = errors.New("invalid phase transition")

type machine struct {
	mu    sync.Mutex
	phase Phase
}

func (m *machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *machine) transition(to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseLoading || (to != PhaseLoaded && to != PhaseFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.phase, to)
	}
	m.phase = to
	return nil
}

// layers reports what a frame in phase p draws. Loader and model are never
// drawn together, and a failed load draws neither.
func layers(p Phase) (loader, model bool) {
	switch p {
	case PhaseLoading:
		return true, false
	case PhaseLoaded:
		return false, true
	default:
		return false, false
	}
}
