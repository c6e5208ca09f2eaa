package viewer

import (
	"fmt"
	"time"

	"github.com/dshills/docview/internal/source"
)

// HandleItemClick routes an activated outline entry or internal link. A
// host-installed OnItemClicked callback takes over entirely; otherwise the
// viewer scrolls the destination page into view itself.
func (v *Viewer) HandleItemClick(item ItemClick) {
	if v.cb.OnItemClicked != nil {
		v.cb.OnItemClicked(item)
		return
	}
	v.ScrollToPage(item.PageIndex)
}

// ScrollToPage brings the surface for a zero-based page index into view. A
// page with no mounted surface produces an advisory, not an error.
func (v *Viewer) ScrollToPage(index int) {
	v.mu.Lock()
	var surface PageSurface
	if index >= 0 && index < len(v.pages) {
		surface = v.pages[index]
	}
	v.mu.Unlock()

	if surface == nil {
		v.emitAdvisory(source.Advisory{
			Code:    AdvisoryNoPageTarget,
			Message: fmt.Sprintf("no mounted surface for page %d", index),
		})
		return
	}
	surface.ScrollIntoView()
}

// HandleScroll records the current viewport top and schedules current-page
// tracking once scrolling has been quiet for the debounce window. Rapid
// scrolling keeps pushing the window out, so only the settled position is
// scanned.
func (v *Viewer) HandleScroll(viewportTop float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.viewportTop = viewportTop
	if v.scrollTimer != nil {
		v.scrollTimer.Stop()
	}
	v.scrollTimer = time.AfterFunc(v.debounce, v.trackCurrentPage)
}

// trackCurrentPage scans the page registry in ascending order and takes the
// first page whose bounds contain the viewport top as the current page.
func (v *Viewer) trackCurrentPage() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	current := -1
	for i, p := range v.pages {
		if p == nil {
			continue
		}
		top, bottom := p.Bounds()
		if top <= v.viewportTop && v.viewportTop <= bottom {
			current = i
			break
		}
	}

	changed := current >= 0 && current != v.pageIndex
	if changed {
		v.pageIndex = current
	}
	v.mu.Unlock()

	if !changed {
		return
	}
	v.bus.Dispatch(EventPageChanged, current)
	if v.cb.OnPageChanged != nil {
		v.cb.OnPageChanged(current)
	}
}

// CurrentPage returns the tracked current page index, or -1 before the
// first tracking pass of a document.
func (v *Viewer) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageIndex
}
