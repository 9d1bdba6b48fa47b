// Package chatbot runs the questionnaire in a terminal and renders analysis
// reports.
package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"stresscheck/internal/analysis"
	"stresscheck/internal/transcript"
)

const (
	greeting = "Welcome to the ChatBot!\n" +
		"I'll be asking you a series of questions. Please answer honestly, and take your time.\n"
	farewell = "Thank you for sharing your thoughts!"
)

// Session asks the questionnaire over a line-oriented reader.
type Session struct {
	In        io.Reader
	Out       io.Writer
	Questions []string
	Styles    *Styles
}

// Ask prompts for every question and returns the answers. Input ending early
// leaves the remaining answers empty.
func (s *Session) Ask(ctx context.Context) (analysis.ResponseSet, error) {
	questions := s.Questions
	if len(questions) == 0 {
		questions = analysis.Questions()
	}
	st := s.styles()

	fmt.Fprintln(s.Out, st.Header.Render(greeting))

	scanner := bufio.NewScanner(s.In)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	rs := make(analysis.ResponseSet, len(questions))
	for i, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(s.Out, "%s %s\n", st.Subheader.Render(fmt.Sprintf("Question %d:", i+1)), q)
		fmt.Fprint(s.Out, "Your answer: ")

		answer := ""
		if scanner.Scan() {
			answer = strings.TrimRight(scanner.Text(), "\r")
		} else if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read answer: %w", err)
		}
		rs[q] = answer
		fmt.Fprintln(s.Out)
	}
	return rs, nil
}

// Run asks the questionnaire and saves the transcript.
func (s *Session) Run(ctx context.Context, store transcript.Store) (*transcript.Transcript, error) {
	rs, err := s.Ask(ctx)
	if err != nil {
		return nil, err
	}
	t, err := store.Save(ctx, rs)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(s.Out, s.styles().Success.Render(farewell))
	return t, nil
}

func (s *Session) styles() *Styles {
	if s.Styles == nil {
		return NewStyles(false)
	}
	return s.Styles
}
