package cli

import (
	"fmt"

	"rezzy/internal/common"
	"rezzy/internal/errors"
	"rezzy/internal/types"
	"rezzy/internal/wizard"

	"github.com/spf13/cobra"
)

var resumesCmd = &cobra.Command{
	Use:     "resumes",
	Short:   "List your optimized resumes",
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&resumesConfig),
	RunE:    runResumes,
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List tracked job applications",
	Long: `List the job applications tracked for your account. Use --add with
--title and --company to record a new application, or --id to update an
existing one. With --id alone --status moves it through the pipeline; add
--title or --company to rewrite the entry.`,
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&applicationsConfig),
	RunE:    runApplications,
}

var prepCmd = &cobra.Command{
	Use:     "prep [application-id]",
	Short:   "Generate interview prep questions for an application",
	Args:    cobra.ExactArgs(1),
	PreRunE: formatPreRun(&prepConfig),
	RunE:    runPrep,
}

var (
	resumesConfig      common.CommandConfig
	applicationsConfig common.CommandConfig
	prepConfig         common.CommandConfig

	applicationAdd     bool
	applicationID      string
	applicationTitle   string
	applicationCompany string
	applicationStatus  string
	applicationNotes   string
)

func init() {
	addOutputFlags(resumesCmd, &resumesConfig)
	addOutputFlags(applicationsCmd, &applicationsConfig)
	addOutputFlags(prepCmd, &prepConfig)

	applicationsCmd.Flags().BoolVar(&applicationAdd, "add", false, "Record a new application instead of listing")
	applicationsCmd.Flags().StringVar(&applicationID, "id", "", "Application ID to update instead of listing")
	applicationsCmd.Flags().StringVar(&applicationTitle, "title", "", "Job title for --add or --id")
	applicationsCmd.Flags().StringVar(&applicationCompany, "company", "", "Company for --add or --id")
	applicationsCmd.Flags().StringVar(&applicationStatus, "status", "applied", "Status for --add or --id")
	applicationsCmd.Flags().StringVar(&applicationNotes, "notes", "", "Notes for --add or --id")
}

func runResumes(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ensureReady(cmd.Context()); err != nil {
		return err
	}

	resumes, err := a.api.ListOptimizedResumes(cmd.Context(), a.session.UserID)
	if err != nil {
		return fmt.Errorf("failed to list optimized resumes: %w", err)
	}

	return common.NewOutputHandler(a.logger).HandleOutput(resumes, resumesConfig)
}

func runApplications(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ensureReady(cmd.Context()); err != nil {
		return err
	}

	handler := common.NewOutputHandler(a.logger)

	if applicationAdd {
		if applicationTitle == "" || applicationCompany == "" {
			return fmt.Errorf("--add requires --title and --company")
		}
		created, err := a.api.CreateJobApplication(cmd.Context(), a.session.UserID, types.JobApplication{
			JobTitle: applicationTitle,
			Company:  applicationCompany,
			Status:   applicationStatus,
			Notes:    applicationNotes,
		})
		if err != nil {
			return fmt.Errorf("failed to record application: %w", err)
		}
		return handler.HandleOutput(created, applicationsConfig)
	}

	if applicationID != "" {
		var updated types.JobApplication
		if applicationTitle != "" || applicationCompany != "" {
			updated, err = a.api.UpdateJobApplication(cmd.Context(), a.session.UserID, types.JobApplication{
				ID:       applicationID,
				JobTitle: applicationTitle,
				Company:  applicationCompany,
				Notes:    applicationNotes,
			})
		} else {
			updated, err = a.api.UpdateJobApplicationStatus(cmd.Context(), a.session.UserID,
				applicationID, applicationStatus)
		}
		if err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}
		return handler.HandleOutput(updated, applicationsConfig)
	}

	apps, err := a.api.ListJobApplications(cmd.Context(), a.session.UserID)
	if err != nil {
		return fmt.Errorf("failed to list applications: %w", err)
	}
	return handler.HandleOutput(apps, applicationsConfig)
}

func runPrep(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.ensureReady(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.requireOnboarded(snap); err != nil {
		return err
	}

	flow, err := wizard.NewPrepFlow(a.api, a.gate, a.planFunc(), a.session.UserID,
		a.obs.GetMetrics(), a.logger)
	if err != nil {
		return err
	}

	prep, err := flow.Advance(cmd.Context(), wizard.StagePrep, wizard.PrepInput{
		ApplicationID: args[0],
	})
	if err != nil {
		if flow.Upselling() {
			printUpsell(a)
			return errors.NewQuotaExceededError(errors.ErrCodeQuotaExceeded,
				"Interview prep not generated: monthly limit reached", err)
		}
		return fmt.Errorf("failed to generate interview prep: %w", err)
	}

	return common.NewOutputHandler(a.logger).HandleOutput(prep, prepConfig)
}
