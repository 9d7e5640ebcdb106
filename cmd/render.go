package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Chative-multiagent/server/internal/agent/model"
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#FFFFFF"))
	failedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F5F"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8A8A8A"))
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	categoryColors = map[model.Category]lipgloss.Color{
		model.CategoryGeneral:      "#5F87AF",
		model.CategoryCoding:       "#5FAF5F",
		model.CategoryGrammar:      "#AF87D7",
		model.CategoryResearch:     "#D78700",
		model.CategoryPlanning:     "#00AFAF",
		model.CategoryCreative:     "#D75F87",
		model.CategoryMath:         "#875FD7",
		model.CategoryConversation: "#AFAF00",
	}
)

// resultRenderer prints engine results for a terminal.
type resultRenderer struct {
	markdown *glamour.TermRenderer
}

// newResultRenderer renders markdown when plain is false; rendering falls back
// to raw text when the terminal renderer cannot be built.
func newResultRenderer(plain bool) *resultRenderer {
	if plain {
		return &resultRenderer{}
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return &resultRenderer{}
	}
	return &resultRenderer{markdown: md}
}

func badge(c model.Category) string {
	label := c.String()
	if label == "" {
		label = "unclassified"
	}
	color, ok := categoryColors[c]
	if !ok {
		color = "#626262"
	}
	return badgeStyle.Background(color).Render(label)
}

func (r *resultRenderer) body(text string) string {
	if r.markdown == nil {
		return text
	}
	out, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// Render writes one result: badge line, optional plan, response body and usage.
func (r *resultRenderer) Render(w io.Writer, query string, res *model.Result) {
	header := badge(res.Category)
	if !res.Success {
		header += " " + failedStyle.Render("failed")
	}
	if query != "" {
		header += " " + dimStyle.Render(query)
	}
	fmt.Fprintln(w, header)

	if len(res.Plan) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Plan"))
		for _, step := range res.Plan {
			fmt.Fprintln(w, "  "+step)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, r.body(res.Response))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d calls · %d+%d tokens · $%.6f",
		res.Usage.Calls, res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalCostUSD)))
}
