package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/shutter/internal/domain"
)

// ChannelObserver adapts domain.PaginationObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- tea.Msg
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- tea.Msg) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

var _ domain.PaginationObserver = (*ChannelObserver)(nil)

func (o *ChannelObserver) OnLoadingChanged(loading bool) {
	o.send(LoadingChangedMsg{Loading: loading})
}

func (o *ChannelObserver) OnRowCountChanged(count int) {
	o.send(RowCountChangedMsg{Count: count})
}

func (o *ChannelObserver) OnPageReady(page int, r domain.RowRange) {
	o.send(PageReadyMsg{Page: page, Range: r})
}

func (o *ChannelObserver) OnPageFailed(page int, err error) {
	o.send(PageFailedMsg{Page: page, Err: err})
}

// send delivers msg without blocking the controller. A dropped row count is
// recovered on the next page or loading event, when the model re-reads
// the count from the controller.
func (o *ChannelObserver) send(msg tea.Msg) {
	select {
	case o.ch <- msg:
	default:
	}
}

// listenCmd returns a command that reads the next controller event
func listenCmd(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
