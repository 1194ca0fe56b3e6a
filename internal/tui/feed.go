package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"imsidesk/internal/services/requests"
)

type feedEvent struct {
	notice string
	op     string
	err    error
}

type feedMsg feedEvent

// Feed carries screen notifications into the bubbletea event loop. It
// implements requests.Notifier and requests.Reporter.
type Feed struct {
	events chan feedEvent
}

// NewFeed creates a feed with room for a burst of events
func NewFeed() *Feed {
	return &Feed{events: make(chan feedEvent, 16)}
}

func (f *Feed) Success(msg string) {
	f.push(feedEvent{notice: msg})
}

func (f *Feed) Error(op string, err error) {
	log.Error().Err(err).Str("op", op).Msg("screen operation failed")
	f.push(feedEvent{op: op, err: err})
}

func (f *Feed) push(e feedEvent) {
	select {
	case f.events <- e:
	default:
		log.Warn().Str("notice", e.notice).AnErr("error", e.err).Msg("dropping screen event, feed full")
	}
}

// wait blocks for the next event; Update re-arms it after each one
func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		return feedMsg(<-f.events)
	}
}

var (
	_ requests.Notifier = (*Feed)(nil)
	_ requests.Reporter = (*Feed)(nil)
)
