package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/desertthunder/songreqs/internal/tasks"
)

var (
	_ list.Item = requestItem{}
	_ list.Item = skipItem{}
)

// requestItem wraps [models.TrackRequest] to implement [list.Item].
type requestItem struct {
	position int
	request  models.TrackRequest
}

func (i requestItem) FilterValue() string { return i.request.User }
func (i requestItem) Title() string {
	return fmt.Sprintf("%d. %s", i.position, i.request.URI())
}
func (i requestItem) Description() string {
	desc := fmt.Sprintf("requested by %s", i.request.User)
	if i.request.Searched {
		desc = fmt.Sprintf("%s • via search: %s", desc, shared.Truncate(i.request.Message, 40))
	}
	return desc
}

// skipItem wraps [tasks.Skip] to implement [list.Item].
type skipItem struct {
	skip tasks.Skip
}

func (i skipItem) FilterValue() string { return i.skip.User }
func (i skipItem) Title() string {
	return styles.Warn(fmt.Sprintf("✗ #%d %s", i.skip.Position, i.skip.User))
}
func (i skipItem) Description() string {
	return shared.Truncate(i.skip.Message, 60)
}

func reportItems(r *tasks.Report) []list.Item {
	items := make([]list.Item, 0, len(r.Requests)+len(r.Skips))
	for i, req := range r.Requests {
		items = append(items, requestItem{position: i + 1, request: req})
	}
	for _, s := range r.Skips {
		items = append(items, skipItem{skip: s})
	}
	return items
}
