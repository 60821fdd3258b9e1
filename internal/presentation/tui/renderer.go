package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/reel/pkg/conversation"
	"github.com/aretw0/reel/pkg/simulation"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for the terminal. Without a
// usable style the markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return func(md string) (string, error) { return md, nil }
	}
	return r.Render
}

// Transcript formats a simulated dialogue as markdown.
func Transcript(i int, res *conversation.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Dialogue %d\n\n", i+1)
	if len(res.Agenda) > 0 {
		fmt.Fprintf(&b, "*Agenda:* `%s`\n\n", strings.Join(res.Agenda, " → "))
	}
	for _, t := range res.Dialog {
		who := "**User**"
		if t.Speaker == simulation.AgentTag {
			who = "**Agent**"
		}
		text := strings.ReplaceAll(strings.TrimSpace(t.Text), "\n", " ")
		fmt.Fprintf(&b, "- %s (%s): %s\n", who, t.Intent, text)
	}
	if res.Aborted != "" {
		fmt.Fprintf(&b, "\n> aborted: %s\n", res.Aborted)
	}
	if p := res.Persona; p != nil {
		b.WriteString("\n| Movie | Rating |\n|---|---|\n")
		for _, m := range p.Movies {
			fmt.Fprintf(&b, "| %s | %g |\n", m.Name, m.Rating)
		}
	}
	return b.String()
}
