package pacing

// ScrollState is the outcome of observing the page after a scroll
type ScrollState int

const (
	// Scrolling means another scroll may load more content
	Scrolling ScrollState = iota
	// Stuck means the page stopped growing for too many attempts in a row
	Stuck
	// Exhausted means the scroll ceiling was reached
	Exhausted
)

func (s ScrollState) String() string {
	switch s {
	case Scrolling:
		return "scrolling"
	case Stuck:
		return "stuck"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// ScrollSession tracks one scroll-to-bottom collection. Every Observe call
// counts against maxScrolls; consecutive calls without height growth count
// against stuckThreshold and reset on growth.
type ScrollSession struct {
	maxScrolls     int
	stuckThreshold int

	lastHeight int64
	attempts   int
	stalls     int
	state      ScrollState
}

// NewScrollSession starts a session at the page's current height.
// Non-positive limits are raised to 1.
func NewScrollSession(maxScrolls, stuckThreshold int, initialHeight int64) *ScrollSession {
	if maxScrolls < 1 {
		maxScrolls = 1
	}
	if stuckThreshold < 1 {
		stuckThreshold = 1
	}
	return &ScrollSession{
		maxScrolls:     maxScrolls,
		stuckThreshold: stuckThreshold,
		lastHeight:     initialHeight,
	}
}

// Observe records the page height measured after a scroll and returns the
// resulting state. Once a terminal state is reached it is sticky.
func (s *ScrollSession) Observe(height int64) ScrollState {
	if s.state != Scrolling {
		return s.state
	}

	s.attempts++
	if height <= s.lastHeight {
		s.stalls++
	} else {
		s.stalls = 0
		s.lastHeight = height
	}

	switch {
	case s.stalls >= s.stuckThreshold:
		s.state = Stuck
	case s.attempts >= s.maxScrolls:
		s.state = Exhausted
	}
	return s.state
}

// State returns the current state
func (s *ScrollSession) State() ScrollState { return s.state }

// Attempts returns how many scrolls were observed
func (s *ScrollSession) Attempts() int { return s.attempts }

// Stalls returns the current run of scrolls without growth
func (s *ScrollSession) Stalls() int { return s.stalls }
