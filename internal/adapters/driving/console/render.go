package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eras-labs/consilium/internal/core/domain"
)

// snippetLimit caps chunk text shown per citation or hit.
const snippetLimit = 240

// renderDecision renders a pipeline answer for the result viewport.
func renderDecision(s *Styles, resp domain.DecisionResponse, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	sections := make([]string, 0, 16)

	headline := s.Success
	switch resp.FinalRecommendation {
	case domain.RecommendationInsufficientData, domain.RecommendationNeedsReview:
		headline = s.Warning
	}
	sections = append(sections,
		s.Title.Render("Recommendation"),
		wrap.Render(headline.Render(resp.FinalRecommendation)),
	)

	if len(resp.FinalActions) > 0 {
		lines := make([]string, 0, len(resp.FinalActions))
		for i, action := range resp.FinalActions {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, action))
		}
		sections = append(sections, "",
			s.Subtitle.Render("Actions"),
			wrap.Render(s.Normal.Render(strings.Join(lines, "\n"))),
		)
	}

	if len(resp.KeyReasons) > 0 {
		sections = append(sections, "",
			s.Subtitle.Render("Key reasons"),
			wrap.Render(s.Normal.Render(bulleted(resp.KeyReasons))),
		)
	}

	if len(resp.RisksAndNotes) > 0 {
		sections = append(sections, "",
			s.Subtitle.Render("Risks and notes"),
			wrap.Render(s.Normal.Render(bulleted(resp.RisksAndNotes))),
		)
	}

	if len(resp.MissingData) > 0 {
		sections = append(sections, "",
			s.Subtitle.Render("Missing data"),
			wrap.Render(s.Warning.Render(bulleted(resp.MissingData))),
		)
	}

	if len(resp.Conflicts) > 0 {
		sections = append(sections, "",
			s.Subtitle.Render("Conflicts"),
			wrap.Render(s.Warning.Render(bulleted(resp.Conflicts))),
		)
	}

	if len(resp.Citations) > 0 {
		lines := make([]string, 0, len(resp.Citations)*2)
		for _, c := range resp.Citations {
			lines = append(lines,
				s.Normal.Render(fmt.Sprintf("[%s #%d]", c.Source, c.ChunkID)),
				s.Muted.Render("  "+truncate(c.Text, snippetLimit)),
			)
		}
		sections = append(sections, "",
			s.Subtitle.Render("Citations"),
			wrap.Render(strings.Join(lines, "\n")),
		)
	}

	if len(resp.Agents) > 0 {
		lines := make([]string, 0, len(resp.Agents))
		for _, agent := range resp.Agents {
			if agent.Error != "" {
				lines = append(lines, fmt.Sprintf("%s  %s",
					s.Normal.Render(string(agent.Name)),
					s.Error.Render(agent.Error)))
				continue
			}
			lines = append(lines, fmt.Sprintf("%s  %s",
				s.Normal.Render(string(agent.Name)),
				s.Muted.Render(truncate(agent.Decision.Recommendation, 120))))
		}
		sections = append(sections, "",
			s.Subtitle.Render("Panel"),
			wrap.Render(strings.Join(lines, "\n")),
		)
	}

	footer := fmt.Sprintf("%s · %s · %d ms · %d hits · trace %s",
		resp.Metrics.Scenario,
		resp.Metrics.BackendName,
		resp.Metrics.LatencyMS,
		resp.Metrics.HitsCount,
		resp.Metrics.TraceID,
	)
	sections = append(sections, "", s.Help.Render(footer))

	if len(resp.Metrics.Errors) > 0 {
		sections = append(sections,
			wrap.Render(s.Error.Render(bulleted(resp.Metrics.Errors))))
	}

	return strings.Join(sections, "\n")
}

// renderHits renders evidence lookup results for the search viewport.
func renderHits(s *Styles, query string, hits []domain.RetrievalHit, width int) string {
	if len(hits) == 0 {
		return s.Muted.Render(fmt.Sprintf("No evidence found for %q.", query))
	}

	wrap := lipgloss.NewStyle().Width(width)
	sections := make([]string, 0, len(hits)*3+1)
	sections = append(sections,
		s.Subtitle.Render(fmt.Sprintf("%d hits for %q", len(hits), query)))

	for i, hit := range hits {
		sections = append(sections, "",
			s.Normal.Render(fmt.Sprintf("[%d] %s #%d (%.3f)",
				i+1, hit.Source, hit.ChunkID, hit.Score)),
			wrap.Render(s.Muted.Render("  "+truncate(hit.Text, snippetLimit))),
		)
	}

	return strings.Join(sections, "\n")
}

// bulleted joins items as a bullet list.
func bulleted(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "• "+item)
	}
	return strings.Join(lines, "\n")
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
