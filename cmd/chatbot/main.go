// cmd/chatbot/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stresscheck/internal/analysis"
	"stresscheck/internal/chatbot"
	"stresscheck/internal/common/config"
	"stresscheck/internal/common/logger"
	"stresscheck/internal/sentiment"
	"stresscheck/internal/transcript"
)

var (
	// Global flags
	transcriptPath string
	logLevel       string
	noColor        bool

	// analyze flags
	backend     string
	backendURL  string
	jsonOutput  bool
	analyzeNext bool
)

var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "Wellbeing questionnaire and stress analysis",
	Long: `chatbot asks a fixed questionnaire about how you have been feeling,
stores the answers as a transcript and analyzes them for signs of stress.`,
	SilenceUsage: true,
}

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer the questionnaire and save the transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		store := transcript.NewFileStore(transcriptPath, log)

		session := &chatbot.Session{
			In:     cmd.InOrStdin(),
			Out:    cmd.OutOrStdout(),
			Styles: chatbot.NewStyles(colorEnabled()),
		}
		saved, err := session.Run(cmd.Context(), store)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Your responses have been saved to '%s'\n", transcriptPath)

		if !analyzeNext {
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return analyzeAndRender(cmd, saved.Responses, log)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the saved transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		store := transcript.NewFileStore(transcriptPath, log)

		latest, err := store.Latest(cmd.Context())
		if err != nil {
			return err
		}
		return analyzeAndRender(cmd, latest.Responses, log)
	},
}

func analyzeAndRender(cmd *cobra.Command, rs analysis.ResponseSet, log logger.Logger) error {
	classifier, err := sentiment.New(config.ClassifierConfig{
		Backend:  backend,
		URL:      backendURL,
		APIToken: os.Getenv("HF_API_TOKEN"),
		Timeout:  10000,
	}, sentiment.Options{Logger: log})
	if err != nil {
		return err
	}

	analyzer := analysis.NewAnalyzer(analysis.Config{
		MaxTokens:         512,
		ClassifierTimeout: 10 * time.Second,
	}, classifier, log, nil)

	res, err := analyzer.Analyze(cmd.Context(), rs)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	chatbot.RenderReport(cmd.OutOrStdout(), res, chatbot.NewStyles(colorEnabled()))
	return nil
}

func newLogger() logger.Logger {
	return logger.NewStructured(logLevel, "console", "stderr")
}

func colorEnabled() bool {
	return !noColor && term.IsTerminal(int(os.Stdout.Fd()))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&transcriptPath, "transcript", "t", "user_chat_log.json", "Transcript file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	for _, c := range []*cobra.Command{askCmd, analyzeCmd} {
		c.Flags().StringVar(&backend, "backend", sentiment.BackendLexicon, "Sentiment backend (lexicon, http)")
		c.Flags().StringVar(&backendURL, "classifier-url", "", "Inference endpoint for the http backend")
		c.Flags().BoolVar(&jsonOutput, "json", false, "Print the analysis as JSON")
	}
	askCmd.Flags().BoolVar(&analyzeNext, "analyze", false, "Analyze the answers right after saving them")

	rootCmd.AddCommand(askCmd, analyzeCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
