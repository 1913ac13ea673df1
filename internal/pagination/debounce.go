package pagination

import (
	"time"

	"github.com/mmcdole/shutter/internal/domain"
)

// scheduleRowCount arranges for the current row count to be delivered once
// no further change has happened for the debounce window. Repeated values
// are delivered once.
func (c *Controller) scheduleRowCount() {
	if c.debounce <= 0 {
		c.emitRowCount()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.countTimer != nil {
		c.countTimer.Stop()
	}
	c.countTimer = time.AfterFunc(c.debounce, c.emitRowCount)
}

func (c *Controller) emitRowCount() {
	c.mu.Lock()
	count := c.rowCount
	if c.closed || (c.countEmitted && count == c.lastCount) {
		c.mu.Unlock()
		return
	}
	c.countEmitted = true
	c.lastCount = count
	c.mu.Unlock()

	c.notify(func(o domain.PaginationObserver) { o.OnRowCountChanged(count) })
}
