package threat

import (
	"dark-phoenix/internal/ringbuf"
)

// DefaultHistorySize bounds the assessment history when no size is configured.
const DefaultHistorySize = 1000

// Filter decides which assessments may drive escalation and which threat
// types are reported.
type Filter struct {
	Sensitivity         float64
	ConfidenceThreshold float64
	Enabled             map[Type]bool
}

// NewFilter builds a filter; an empty enabled list enables every type.
func NewFilter(sensitivity, confidenceThreshold float64, enabled []Type) Filter {
	f := Filter{
		Sensitivity:         clamp01(sensitivity),
		ConfidenceThreshold: confidenceThreshold,
	}
	if len(enabled) > 0 {
		f.Enabled = make(map[Type]bool, len(enabled))
		for _, t := range enabled {
			f.Enabled[t] = true
		}
	}
	return f
}

// Strip removes disabled types, returning a copy of a.
func (f Filter) Strip(a Assessment) Assessment {
	if f.Enabled == nil {
		return a
	}
	kept := make([]Type, 0, len(a.Types))
	for _, t := range a.Types {
		if f.Enabled[t] {
			kept = append(kept, t)
		}
	}
	a.Types = kept
	return a
}

// Admit reports whether the assessment is confident enough to escalate.
func (f Filter) Admit(a Assessment) bool {
	return a.Confidence >= f.ConfidenceThreshold
}

// History keeps the most recent assessments, oldest evicted first.
type History struct {
	filter Filter
	buf    *ringbuf.Buffer[Assessment]
}

// NewHistory returns a history bounded to size entries.
func NewHistory(size int, f Filter) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{filter: f, buf: ringbuf.New[Assessment](size)}
}

// Record filters a and appends it. The stored copy is returned.
func (h *History) Record(a Assessment) Assessment {
	a = h.filter.Strip(a)
	h.buf.Push(a)
	return a
}

// Admit reports whether a may drive escalation.
func (h *History) Admit(a Assessment) bool { return h.filter.Admit(a) }

// Recent returns up to n of the newest assessments, oldest first.
func (h *History) Recent(n int) []Assessment { return h.buf.Last(n) }

// Len returns the number of retained assessments.
func (h *History) Len() int { return h.buf.Len() }

// Sensitivity returns the current detection sensitivity.
func (h *History) Sensitivity() float64 { return h.filter.Sensitivity }

// AdjustSensitivity sets the sensitivity clamped to [0, 1] and returns it.
func (h *History) AdjustSensitivity(v float64) float64 {
	h.filter.Sensitivity = clamp01(v)
	return h.filter.Sensitivity
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
