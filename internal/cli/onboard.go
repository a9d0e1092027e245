package cli

import (
	"fmt"
	"strings"

	"rezzy/internal/types"

	"github.com/spf13/cobra"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Complete the one-time onboarding profile",
	Long: `Complete the one-time onboarding flow by setting your target position
level and job category. Completion is persisted locally first, then synced to
the backend; a failed sync never re-prompts onboarding.`,
	Args: cobra.NoArgs,
	RunE: runOnboard,
}

var (
	onboardPositionLevel string
	onboardJobCategory   string
)

func init() {
	onboardCmd.Flags().StringVar(&onboardPositionLevel, "position-level", "", "Target position level (e.g. senior, staff, manager)")
	onboardCmd.Flags().StringVar(&onboardJobCategory, "job-category", "", "Target job category (e.g. backend_developer)")
	_ = onboardCmd.MarkFlagRequired("position-level")
	_ = onboardCmd.MarkFlagRequired("job-category")

	_ = onboardCmd.RegisterFlagCompletionFunc("position-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return types.PositionLevels, cobra.ShellCompDirectiveNoFileComp
	})
	_ = onboardCmd.RegisterFlagCompletionFunc("job-category", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return types.JobCategories, cobra.ShellCompDirectiveNoFileComp
	})
}

func runOnboard(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.ensureReady(cmd.Context())
	if err != nil {
		return err
	}

	if snap.Onboarding.CompletedLocally && !snap.Onboarding.Required {
		fmt.Println("Onboarding already completed.")
		return nil
	}

	profile := types.Profile{
		UserID:        a.session.UserID,
		FirstName:     a.session.FirstName,
		LastName:      a.session.LastName,
		PositionLevel: strings.ToLower(onboardPositionLevel),
		JobCategory:   strings.ToLower(onboardJobCategory),
	}

	if err := a.machine.CompleteOnboarding(cmd.Context(), profile); err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}

	// Let the background profile sync finish before the process exits.
	a.machine.WaitForProfileSync()

	fmt.Printf("Onboarding complete: %s / %s\n", profile.PositionLevel, profile.JobCategory)
	return nil
}
