package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/avoigt/refgen/internal/models"
	"github.com/spf13/cobra"
)

var (
	genTopic   string
	genSubject string
	genGrade   string
	genPages   int
	genSources int
	genAuthor  string
	genSchool  string
	genClass   string
	genTeacher string
	genCity    string
	genYear    string
	genOutput  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a project PDF",
	Long: `Submit a generation request, follow its progress, and save the
resulting PDF.

Examples:
  refgen generate --topic "Photosynthesis" --subject Biology --grade 9
  refgen generate --topic "The Roman Empire" -o roman-empire.pdf`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "project topic (required)")
	generateCmd.Flags().StringVar(&genSubject, "subject", "", "school subject")
	generateCmd.Flags().StringVar(&genGrade, "grade", "", "grade level")
	generateCmd.Flags().IntVar(&genPages, "pages", 0, "target page count")
	generateCmd.Flags().IntVar(&genSources, "sources", 0, "number of sources to list")
	generateCmd.Flags().StringVar(&genAuthor, "author", "", "author name for the title page")
	generateCmd.Flags().StringVar(&genSchool, "school", "", "school name for the title page")
	generateCmd.Flags().StringVar(&genClass, "class", "", "class name for the title page")
	generateCmd.Flags().StringVar(&genTeacher, "teacher", "", "teacher name for the title page")
	generateCmd.Flags().StringVar(&genCity, "city", "", "city for the title page")
	generateCmd.Flags().StringVar(&genYear, "year", "", "year for the title page")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output file (default project-<job-id>.pdf)")

	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	req := models.ProjectRequest{
		Topic:       genTopic,
		Subject:     genSubject,
		Grade:       genGrade,
		PageCount:   genPages,
		SourceCount: genSources,
		AuthorName:  genAuthor,
		School:      genSchool,
		ClassName:   genClass,
		TeacherName: genTeacher,
		City:        genCity,
		Year:        genYear,
	}

	jobID, err := apiClient.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("start generation: %w", err)
	}

	if verbose {
		fmt.Printf("Job %s accepted\n", jobID)
	}

	if err := RunJobProgress(apiClient, jobID); err != nil {
		return err
	}

	// Ctrl+C leaves the job running server-side; only download once the
	// job actually finished.
	st, err := apiClient.Status(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	if st.Status != "completed" {
		return nil
	}

	dlCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	pdf, err := apiClient.Download(dlCtx, jobID)
	if err != nil {
		return fmt.Errorf("download document: %w", err)
	}

	output := genOutput
	if output == "" {
		output = fmt.Sprintf("project-%s.pdf", jobID)
	}

	if err := os.WriteFile(output, pdf, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Printf("Saved %s (%d bytes)\n", output, len(pdf))
	return nil
}
