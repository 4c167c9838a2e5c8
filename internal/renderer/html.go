package renderer

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/pagewright/internal/types"
)

// NodeComponent renders one resolved node and its children as HTML. Each
// node becomes an element tagged with its id and type so the canvas can hit
// test against the markup; placeholder nodes render a visible stand-in
// instead of failing.
func NodeComponent(rn *RenderNode) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return writeNode(ctx, w, rn)
	})
}

// PageComponent wraps the resolved tree in a minimal HTML document for the
// preview endpoint.
func PageComponent(root *RenderNode, title string, bp types.Breakpoint) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			"<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body data-breakpoint=%q>",
			html.EscapeString(title), bp); err != nil {
			return err
		}
		if root != nil {
			if err := writeNode(ctx, w, root); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// RenderHTML renders the resolved tree of doc to an HTML string.
func RenderHTML(root *RenderNode, title string, bp types.Breakpoint) (string, error) {
	var sb strings.Builder
	if err := PageComponent(root, title, bp).Render(context.Background(), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeNode(ctx context.Context, w io.Writer, rn *RenderNode) error {
	if rn.Placeholder {
		_, err := fmt.Fprintf(w,
			"<div class=\"pw-placeholder\" data-node-id=%q data-node-type=%q>Unknown component: %s</div>",
			rn.ID, html.EscapeString(rn.Type), html.EscapeString(rn.Type))
		return err
	}

	if _, err := fmt.Fprintf(w, "<div class=\"pw-node pw-%s\" data-node-id=%q data-node-type=%q",
		html.EscapeString(strings.ToLower(rn.Type)), rn.ID, html.EscapeString(rn.Type)); err != nil {
		return err
	}
	if rn.Slot != "" {
		if _, err := fmt.Fprintf(w, " data-slot=%q", html.EscapeString(rn.Slot)); err != nil {
			return err
		}
	}
	if rn.SymbolID != "" {
		if _, err := fmt.Fprintf(w, " data-symbol-id=%q", html.EscapeString(rn.SymbolID)); err != nil {
			return err
		}
	}
	for _, name := range rn.PropNames() {
		if name == "text" {
			continue
		}
		if _, err := fmt.Fprintf(w, " data-prop-%s=%q",
			html.EscapeString(name), html.EscapeString(fmt.Sprint(rn.Props[name]))); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if text, ok := rn.Props["text"].(string); ok {
		if _, err := io.WriteString(w, html.EscapeString(text)); err != nil {
			return err
		}
	}
	for _, child := range rn.Children {
		if err := writeNode(ctx, w, child); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</div>")
	return err
}
