package cli

import (
	"fmt"
	"strings"

	"thoughtline/internal/model"
	"thoughtline/internal/state"

	"github.com/charmbracelet/lipgloss"
)

// Context views can nest; stop well before a pathological chain does harm.
const maxTreeDepth = 64

type treeStyles struct {
	cursor   lipgloss.Style
	selected lipgloss.Style
	context  lipgloss.Style
	meta     lipgloss.Style
	hint     lipgloss.Style
}

func newTreeStyles(r *lipgloss.Renderer) treeStyles {
	return treeStyles{
		cursor:   r.NewStyle().Bold(true).Reverse(true),
		selected: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FD7FF"}),
		context:  r.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "#875F00", Dark: "#D7AF5F"}),
		meta:     r.NewStyle().Faint(true),
		hint:     r.NewStyle().Faint(true),
	}
}

// renderTree draws the outline one thought per line. The cursor line is
// marked with ">" and selected thoughts with "*"; a thought in context view
// lists the other places its text appears.
func renderTree(r *lipgloss.Renderer, st *state.State) string {
	styles := newTreeStyles(r)
	res := st.Resolver()
	cursor := st.Cursor()
	multi := st.Selection.Multi()

	var b strings.Builder
	var walk func(parent model.Path, depth int)
	walk = func(parent model.Path, depth int) {
		if depth > maxTreeDepth {
			return
		}
		viaContext := res.IsContextView(parent)
		for _, p := range res.Children(parent) {
			t, ok := st.Graph.Thought(p.Head())
			if !ok {
				continue
			}
			marker := "  "
			switch {
			case p.Equal(cursor):
				marker = "> "
			case multi.Contains(p):
				marker = "* "
			}

			label := t.Value
			if label == "" {
				label = "(empty)"
			}
			style := r.NewStyle()
			switch {
			case p.Equal(cursor):
				style = styles.cursor
			case multi.Contains(p):
				style = styles.selected
			case t.IsMeta():
				style = styles.meta
			}
			line := strings.Repeat("  ", depth) + marker + style.Render(label)
			if viaContext {
				if parentThought, ok := st.Graph.Thought(t.ParentID); ok && t.ParentID != model.RootID {
					line += " " + styles.hint.Render("in "+parentThought.Value)
				}
			}
			if res.IsContextView(p) {
				line += " " + styles.context.Render(fmt.Sprintf("[%d contexts]", len(res.ChildIDs(p))))
			}
			b.WriteString(line)
			b.WriteByte('\n')
			walk(p, depth+1)
		}
	}
	walk(model.Path{}, 0)
	return b.String()
}
