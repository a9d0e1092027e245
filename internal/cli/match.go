package cli

import (
	"fmt"

	"rezzy/internal/common"
	"rezzy/internal/errors"
	"rezzy/internal/wizard"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find jobs matching your stored resume",
	Long: `Run the job matcher flow against your most recent uploaded resume.
With --optimize, also generate an optimized resume for the selected job;
optimization is metered like scans on the free plan.`,
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&matchConfig),
	RunE:    runMatch,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "List recommended job postings",
	Long: `List job postings recommended for your profile, filtered by posting
age. Accepted filters: 1d, 3d, 1w, 1m.`,
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&recommendConfig),
	RunE:    runRecommend,
}

var (
	matchConfig   common.CommandConfig
	matchOptimize string

	recommendConfig common.CommandConfig
	recommendSince  string
)

func init() {
	addOutputFlags(matchCmd, &matchConfig)
	matchCmd.Flags().StringVar(&matchOptimize, "optimize", "", "Job ID to generate an optimized resume for")

	addOutputFlags(recommendCmd, &recommendConfig)
	recommendCmd.Flags().StringVar(&recommendSince, "since", "1w", "Posting age filter (1d, 3d, 1w, 1m)")
}

func runMatch(cmd *cobra.Command, args []string) error {
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

	flow, err := wizard.NewMatcherFlow(a.api, a.gate, a.planFunc(), a.session.UserID,
		a.obs.GetMetrics(), a.logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	matches, err := flow.Advance(ctx, wizard.StageMatch, nil)
	if err != nil {
		return fmt.Errorf("job matching failed: %w", err)
	}

	handler := common.NewOutputHandler(a.logger)

	if matchOptimize == "" {
		return handler.HandleOutput(matches, matchConfig)
	}

	optimized, err := flow.Advance(ctx, wizard.StageOptimize, wizard.OptimizeInput{
		JobID: matchOptimize,
	})
	if err != nil {
		if flow.Upselling() {
			printUpsell(a)
			return errors.NewQuotaExceededError(errors.ErrCodeQuotaExceeded,
				"Resume not optimized: monthly limit reached", err)
		}
		return fmt.Errorf("resume optimization failed: %w", err)
	}

	return handler.HandleOutput(optimized, matchConfig)
}

func runRecommend(cmd *cobra.Command, args []string) error {
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

	recommendations, err := a.api.JobRecommendations(cmd.Context(), a.session.UserID, recommendSince)
	if err != nil {
		return fmt.Errorf("failed to fetch job recommendations: %w", err)
	}
	return common.NewOutputHandler(a.logger).HandleOutput(recommendations, recommendConfig)
}
