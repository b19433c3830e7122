package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/examgen/internal/syllabus"
	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics [subject]",
	Short: "List subjects, or the topics and subtopics of one subject",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := syllabus.Default()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			for _, s := range catalog.Subjects() {
				fmt.Fprintln(out, s)
			}
			return nil
		}

		topics, err := catalog.Topics(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%-24s  %s\n", "Topic", "Subtopics")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, t := range topics {
			fmt.Fprintf(out, "%-24s  %s\n", t.Name, strings.Join(t.Subtopics, ", "))
		}
		fmt.Fprintf(out, "\n%d topics\n", len(topics))
		return nil
	},
}
