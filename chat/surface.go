package chat

// ElementHandle names a piece of the rendering surface the store drives.
type ElementHandle string

const (
	MessageList ElementHandle = "message-list"
	Compose     ElementHandle = "compose"
)

// Position is a scroll target inside an element.
type Position int

const (
	Top Position = iota
	Bottom
)

// Surface is the layout capability the rendering layer hands the store.
type Surface interface {
	MeasureAndResize(el ElementHandle)
	ScrollTo(el ElementHandle, pos Position, animated bool)
}

type nopSurface struct{}

func (nopSurface) MeasureAndResize(ElementHandle)        {}
func (nopSurface) ScrollTo(ElementHandle, Position, bool) {}
