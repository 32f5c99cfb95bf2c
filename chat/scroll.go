package chat

// ScrollPhase is the state of the message list scroll position.
type ScrollPhase int

const (
	Uninitialized ScrollPhase = iota
	Settled
)

func (p ScrollPhase) String() string {
	if p == Settled {
		return "settled"
	}
	return "uninitialized"
}

// ScrollRequest is what the message list should do after a render.
type ScrollRequest int

const (
	NoScroll ScrollRequest = iota
	// JumpToBottom scrolls without animation.
	JumpToBottom
	// AnimateToBottom smooth-scrolls.
	AnimateToBottom
)

// ScrollState decides how newly rendered messages are revealed. The first
// population of the list jumps, every later arrival animates.
type ScrollState struct {
	Phase ScrollPhase
}

// OnMessagesChanged returns the next state and the scroll to perform when the
// list length goes from oldLen to newLen.
func (s ScrollState) OnMessagesChanged(oldLen, newLen int) (ScrollState, ScrollRequest) {
	switch {
	case s.Phase == Uninitialized && oldLen == 0 && newLen > 0:
		return ScrollState{Phase: Settled}, JumpToBottom
	case s.Phase == Settled && newLen > oldLen:
		return s, AnimateToBottom
	default:
		return s, NoScroll
	}
}
