package chatbot

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stresscheck/internal/analysis"
)

// Styles holds the lipgloss styles of the terminal report.
type Styles struct {
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Levels    map[analysis.StressLevel]lipgloss.Style
}

// NewStyles returns coloured styles, or plain ones for non-TTY output.
func NewStyles(enabled bool) *Styles {
	plain := lipgloss.NewStyle()
	if !enabled {
		return &Styles{
			Header:    plain,
			Subheader: plain,
			Success:   plain,
			Muted:     plain,
			Levels:    map[analysis.StressLevel]lipgloss.Style{},
		}
	}
	return &Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		Subheader: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Levels: map[analysis.StressLevel]lipgloss.Style{
			analysis.Stable:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			analysis.MildStress: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			analysis.HighStress: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
			analysis.Critical:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		},
	}
}

func (s *Styles) level(l analysis.StressLevel) lipgloss.Style {
	if st, ok := s.Levels[l]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// RenderReport writes the analysis as a human-readable report.
func RenderReport(w io.Writer, res *analysis.AnalysisResult, st *Styles) {
	if st == nil {
		st = NewStyles(false)
	}
	d := res.AnalysisDetails

	fmt.Fprintln(w, st.Header.Render("=== Mental Health Analysis Results ==="))
	fmt.Fprintf(w, "\nOverall Status: %s\n", st.level(res.StressLevel).Render(res.StressLevel.String()))
	fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("Stress score: %.2f / 10", res.Score)))

	fmt.Fprintln(w, st.Subheader.Render("\nRecommended Improvements:"))
	for i, tip := range res.ImprovementTips {
		fmt.Fprintf(w, "%d. %s\n", i+1, tip)
	}

	fmt.Fprintln(w, st.Subheader.Render("\nAnalysis Details:"))
	fmt.Fprintf(w, "Sentiment Scores: pos=%.3f neu=%.3f neg=%.3f compound=%.3f\n",
		d.Sentiment.Pos, d.Sentiment.Neu, d.Sentiment.Neg, d.Sentiment.Compound)

	fmt.Fprintln(w, st.Subheader.Render("\nEmotional Keywords Found:"))
	fmt.Fprintf(w, "Positive: %s\n", strings.Join(d.EmotionalKeywords.Positive, ", "))
	fmt.Fprintf(w, "Negative: %s\n", strings.Join(d.EmotionalKeywords.Negative, ", "))

	p := d.TextPatterns
	fmt.Fprintln(w, st.Subheader.Render("\nText Pattern Analysis:"))
	fmt.Fprintf(w, "Exclamation Count: %d\n", p.ExclamationCount)
	fmt.Fprintf(w, "Question Count: %d\n", p.QuestionCount)
	fmt.Fprintf(w, "Ellipsis Count: %d\n", p.EllipsisCount)
	fmt.Fprintf(w, "Uppercase Ratio: %.3f\n", p.UppercaseRatio)
	fmt.Fprintf(w, "Sentence Count: %d\n", p.SentenceCount)
	fmt.Fprintf(w, "Word Count: %d\n", p.WordCount)
}
