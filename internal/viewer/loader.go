package viewer

import (
	"fmt"

	"github.com/Faultbox/glbview/internal/engine/ui2d"
	"github.com/Faultbox/glbview/internal/progress"
)

// loaderTextScale is the integer scale applied to the bitmap font.
const loaderTextScale = 2

// Loader shows load progress as "Chargement... N%" in the middle of the screen.
// It only knows the percentages its subscription delivers.
type Loader struct {
	tracker *progress.Tracker
	updates <-chan int
	percent int
}

// NewLoader subscribes to tr.
func NewLoader(tr *progress.Tracker) *Loader {
	return &Loader{
		tracker: tr,
		updates: tr.Subscribe(),
	}
}

// Poll takes the newest percentage without blocking and returns it.
func (l *Loader) Poll() int {
	for {
		select {
		case p := <-l.updates:
			if p > l.percent {
				l.percent = p
			}
		default:
			return l.percent
		}
	}
}

// Percent returns the last polled percentage.
func (l *Loader) Percent() int {
	return l.percent
}

// Text returns the label for the last polled percentage.
func (l *Loader) Text() string {
	return fmt.Sprintf("Chargement... %d%%", l.percent)
}

// Draw queues the label centred on screen.
func (l *Loader) Draw(ui *ui2d.Renderer) {
	ui.DrawTextCentered(l.Text(), loaderTextScale, ui2d.ColorBlack)
}

// Close ends the subscription.
func (l *Loader) Close() {
	l.tracker.Unsubscribe(l.updates)
}
