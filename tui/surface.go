package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Doxria/life-invader-frontend/chat"
)

type (
	changedMsg struct{}
	scrollMsg  struct {
		el       chat.ElementHandle
		pos      chat.Position
		animated bool
	}
	resizeMsg struct{ el chat.ElementHandle }
)

// Surface is the terminal implementation of chat.Surface. The store may call
// it from any goroutine; calls are queued and applied by the model inside
// Update. Posting never blocks and never drops a scroll or resize.
type Surface struct {
	mu      sync.Mutex
	pending []tea.Msg
	notify  chan struct{}
}

// NewSurface returns an empty Surface.
func NewSurface() *Surface {
	return &Surface{notify: make(chan struct{}, 1)}
}

func (s *Surface) MeasureAndResize(el chat.ElementHandle) {
	s.post(resizeMsg{el: el})
}

// ScrollTo queues a scroll. The terminal has no animation so both kinds jump.
func (s *Surface) ScrollTo(el chat.ElementHandle, pos chat.Position, animated bool) {
	s.post(scrollMsg{el: el, pos: pos, animated: animated})
}

// Changed is the store's OnChange hook.
func (s *Surface) Changed() {
	s.post(changedMsg{})
}

// post queues msg. A change notice directly behind another one is folded into
// it since both re-render from the same fresh snapshot.
func (s *Surface) post(msg tea.Msg) {
	s.mu.Lock()
	if _, ok := msg.(changedMsg); ok && len(s.pending) > 0 {
		if _, last := s.pending[len(s.pending)-1].(changedMsg); last {
			s.mu.Unlock()
			return
		}
	}
	s.pending = append(s.pending, msg)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Surface) pop() (tea.Msg, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	msg := s.pending[0]
	s.pending = s.pending[1:]
	return msg, true
}

// wait delivers the next queued event. The model keeps exactly one wait
// outstanding.
func (s *Surface) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			if msg, ok := s.pop(); ok {
				return msg
			}
			<-s.notify
		}
	}
}
