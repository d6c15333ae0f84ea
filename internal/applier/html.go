package applier

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/roach88/recompose/internal/compose"
)

// HTML renders t as nested lists: each node becomes an <li> holding its
// escaped value, with its children in a nested <ul>.
func HTML(t *Tree) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<ul class="recompose-tree">`); err != nil {
			return err
		}
		if err := writeChildren(ctx, w, t, RootID); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

func writeChildren(ctx context.Context, w io.Writer, t *Tree, id compose.NodeID) error {
	for _, c := range t.Children(id) {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, _ := t.Value(c)
		if _, err := fmt.Fprintf(w, `<li data-node="%d">%s`, c, templ.EscapeString(fmt.Sprint(v))); err != nil {
			return err
		}
		if len(t.Children(c)) > 0 {
			if _, err := io.WriteString(w, "<ul>"); err != nil {
				return err
			}
			if err := writeChildren(ctx, w, t, c); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "</ul>"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</li>"); err != nil {
			return err
		}
	}
	return nil
}

// RenderHTML renders t to a string.
func RenderHTML(ctx context.Context, t *Tree) (string, error) {
	var b strings.Builder
	if err := HTML(t).Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
