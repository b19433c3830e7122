package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/examgen/internal/generation"
	"github.com/abhisek/examgen/internal/problemgen"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions for a topic and print them",
	Long: `Generate questions for a subject and topic and print them with their
worked solutions.

The rate limiter is disabled for this command so that --count can request
several questions in a row. History is kept for the duration of the run, so
consecutive questions rotate through subtopics.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("subject", "", "Subject, e.g. Mathematics (required)")
	generateCmd.Flags().String("topic", "", "Topic within the subject, e.g. Algebra (required)")
	generateCmd.Flags().String("difficulty", "medium", "Difficulty: easy, medium or hard")
	generateCmd.Flags().String("actor", "cli", "Actor ID the request is made for")
	generateCmd.Flags().String("level", "", "Optional syllabus level, e.g. \"Form 3\"")
	generateCmd.Flags().Duration("budget", 0, "Total time allowed for provider attempts (0 = config default)")
	generateCmd.Flags().Int("count", 1, "Number of questions to generate")
	_ = generateCmd.MarkFlagRequired("subject")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	topic, _ := cmd.Flags().GetString("topic")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	actor, _ := cmd.Flags().GetString("actor")
	level, _ := cmd.Flags().GetString("level")
	budget, _ := cmd.Flags().GetDuration("budget")
	count, _ := cmd.Flags().GetInt("count")

	difficulty, err := problemgen.ParseDifficulty(difficultyVal)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.RateLimit.Cooldown = 0

	ctx := cmd.Context()
	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	req := problemgen.GenerationRequest{
		ActorID:    actor,
		Subject:    subject,
		Topic:      topic,
		Difficulty: difficulty,
		FormLevel:  level,
		TimeBudget: budget,
	}

	out := cmd.OutOrStdout()
	for i := 1; i <= count; i++ {
		q, err := app.orchestrator.GenerateQuestion(ctx, req)
		if errors.Is(err, generation.ErrInvalidRequest) {
			return err
		}
		if err != nil {
			fmt.Fprintf(out, "Question %d: generation failed: %v\n\n", i, err)
			continue
		}

		source := string(q.Source)
		if q.Provider != "" {
			source += " (" + q.Provider + ")"
		}
		fmt.Fprintf(out, "── Question %d/%d ── %s · %s · %d pts · %s\n",
			i, count, q.Subtopic, q.Difficulty, q.Points, source)
		fmt.Fprintln(out, q.Question)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Solution:")
		for _, line := range strings.Split(q.Solution, "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
		if q.Answer != "" {
			fmt.Fprintf(out, "Answer: %s\n", q.Answer)
		}
		fmt.Fprintln(out)
	}
	return nil
}
