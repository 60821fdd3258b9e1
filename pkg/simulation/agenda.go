package simulation

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/reel/pkg/domain"
)

// MaxSampleAttempts bounds the random walks tried for one agenda.
const MaxSampleAttempts = 1000

const (
	discloseWindow = 5
	maxAgendaLen   = 12

	qrfaDiscloseWindow = 10
	maxQRFAAgendaLen   = 40
	maxQRFAWalk        = 400
)

// Agenda is a stack of pending user intents. The last element is the next
// intent to pursue.
type Agenda []string

// NewAgenda stacks intents so that they pop in the given order.
func NewAgenda(intents ...string) Agenda {
	a := slices.Clone(intents)
	slices.Reverse(a)
	return a
}

// Pop removes and returns the next intent.
func (a *Agenda) Pop() (string, bool) {
	if len(*a) == 0 {
		return "", false
	}
	last := len(*a) - 1
	intent := (*a)[last]
	*a = (*a)[:last]
	return intent, true
}

// Peek returns the next intent without removing it.
func (a Agenda) Peek() (string, bool) {
	if len(a) == 0 {
		return "", false
	}
	return a[len(a)-1], true
}

// Clone returns an independent copy.
func (a Agenda) Clone() Agenda { return slices.Clone(a) }

// SampleAgenda builds an agenda of the given kind. Random walks that do not
// satisfy the kind's constraints are resampled up to MaxSampleAttempts
// times.
func SampleAgenda(s *Stats, kind AgendaKind, r *rand.Rand) (Agenda, error) {
	switch kind {
	case AgendaOurs:
		return sample(func() ([]string, bool) {
			path, ok := walk(s.User, r, maxAgendaLen)
			return path, ok && containsWithin(path, DiscloseIntent, discloseWindow)
		})
	case AgendaQRFATest:
		return sample(func() ([]string, bool) {
			path, ok := walk(s.QRFA, r, maxQRFAWalk)
			if !ok {
				return nil, false
			}
			path = slices.DeleteFunc(path, func(l string) bool { return l == LabelRequest || l == LabelAnswer })
			return path, len(path) <= maxQRFAAgendaLen && containsWithin(path, DiscloseIntent, qrfaDiscloseWindow)
		})
	case AgendaQRFA:
		if len(s.Ranked) == 0 {
			return nil, fmt.Errorf("%w: corpus has no dialogue with more than %d user turns", domain.ErrAgendaSampling, minRankedUserTurns)
		}
		return NewAgenda(s.Ranked[r.IntN(len(s.Ranked))]...), nil
	}
	return nil, fmt.Errorf("%w: unknown agenda kind %q", domain.ErrAgendaSampling, kind.Value)
}

func sample(try func() ([]string, bool)) (Agenda, error) {
	for range MaxSampleAttempts {
		if path, ok := try(); ok {
			return NewAgenda(path...), nil
		}
	}
	return nil, fmt.Errorf("%w: no acceptable agenda after %d attempts", domain.ErrAgendaSampling, MaxSampleAttempts)
}

// walk follows t from StartIntent until Stop. It fails on a label without
// successors or once the path grows past limit.
func walk(t Transitions, r *rand.Rand, limit int) ([]string, bool) {
	current := StartIntent
	path := []string{current}
	for {
		next, ok := t.Sample(current, r)
		if !ok {
			return nil, false
		}
		if next == StopIntent {
			return path, true
		}
		if len(path) == limit {
			return nil, false
		}
		current = next
		path = append(path, current)
	}
}

func containsWithin(path []string, intent string, n int) bool {
	return slices.Contains(path[:min(n, len(path))], intent)
}
