package demo

import (
	"fmt"
	"strings"

	"github.com/roach88/recompose/internal/compose"
	"github.com/roach88/recompose/internal/slot"
	"github.com/roach88/recompose/internal/state"
)

// Counter renders a label for count next to a static footer that never
// re-executes.
//
// States: count (int).
func Counter(snap *state.Snapshot) *App {
	count := state.New(snap, 0)
	return &App{
		Name: "counter",
		Root: func(c *compose.Composer) {
			c.Element("column", func(c *compose.Composer) {
				c.RestartGroup(slot.ID{Tag: "label"}, func(c *compose.Composer) {
					c.Node(fmt.Sprintf("count=%d", count.Get(c)))
				})
				c.Skippable(slot.ID{Tag: "footer"}, nil, func(c *compose.Composer) {
					c.Node("footer")
				})
			})
		},
		states: map[string]func(any) error{"count": bind(count, toInt)},
	}
}

// Toggle swaps a details subtree for a placeholder.
//
// States: open (bool).
func Toggle(snap *state.Snapshot) *App {
	open := state.New(snap, false)
	return &App{
		Name: "toggle",
		Root: func(c *compose.Composer) {
			c.Element("panel", func(c *compose.Composer) {
				c.Node("header")
				c.RestartGroup(slot.ID{Tag: "body"}, func(c *compose.Composer) {
					if open.Get(c) {
						c.ReplaceableGroup(slot.ID{Tag: "details"}, func(c *compose.Composer) {
							c.Element("details", func(c *compose.Composer) {
								c.Node("line 1")
								c.Node("line 2")
							})
						})
					} else {
						c.ReplaceableGroup(slot.ID{Tag: "placeholder"}, func(c *compose.Composer) {
							c.Node("closed")
						})
					}
				})
			})
		},
		states: map[string]func(any) error{"open": bind(open, toBool)},
	}
}

// Todo renders one keyed row per item and a summary line. Reordering items
// moves rows instead of rebuilding them.
//
// States: items ([]string).
func Todo(snap *state.Snapshot) *App {
	items := state.New(snap, []string{})
	return &App{
		Name: "todo",
		Root: func(c *compose.Composer) {
			c.Element("list", func(c *compose.Composer) {
				c.RestartGroup(slot.ID{Tag: "rows"}, func(c *compose.Composer) {
					for _, it := range items.Get(c) {
						c.RestartGroup(slot.Keyed("row", it), func(c *compose.Composer) {
							c.Node("item:" + it)
						})
					}
				})
			})
			c.RestartGroup(slot.ID{Tag: "summary"}, func(c *compose.Composer) {
				list := items.Get(c)
				text := compose.UseMemo(c, len(list), func() string {
					return fmt.Sprintf("%d items", len(list))
				})
				c.Node(text)
			})
		},
		states: map[string]func(any) error{"items": bind(items, toStrings)},
	}
}

// Theme is the value Themed provides to its descendants.
type Theme string

// Themed provides a Theme near the root and consumes it two scopes down.
//
// States: theme (string), title (string).
func Themed(snap *state.Snapshot) *App {
	theme := state.New(snap, "light")
	title := state.New(snap, "home")
	return &App{
		Name: "theme",
		Root: func(c *compose.Composer) {
			c.Element("app", func(c *compose.Composer) {
				c.RestartGroup(slot.ID{Tag: "provider"}, func(c *compose.Composer) {
					compose.UseProvider(c, Theme(theme.Get(c)))
					c.Element("toolbar", func(c *compose.Composer) {
						c.RestartGroup(slot.ID{Tag: "button"}, func(c *compose.Composer) {
							th := compose.MustUseContext[Theme](c)
							c.Node("button:" + string(th))
						})
					})
					c.RestartGroup(slot.ID{Tag: "title"}, func(c *compose.Composer) {
						c.Node("title:" + strings.ToUpper(title.Get(c)))
					})
				})
			})
		},
		states: map[string]func(any) error{
			"theme": bind(theme, toString),
			"title": bind(title, toString),
		},
	}
}
