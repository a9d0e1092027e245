package cli

import (
	"fmt"

	"rezzy/internal/common"
	"rezzy/internal/errors"
	"rezzy/internal/wizard"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [resume-file] [job-description-file]",
	Short: "Scan a resume against a job description",
	Long: `Run the guided scan flow: upload the resume, analyze the job
description against it, and run the evaluation. The evaluation consumes one
scan on the free plan; when the monthly limit is reached the flow stops at an
upgrade prompt without losing the upload or analysis.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: formatPreRun(&scanConfig),
	RunE:    runScan,
}

var scanConfig common.CommandConfig

func init() {
	addOutputFlags(scanCmd, &scanConfig)
}

func runScan(cmd *cobra.Command, args []string) error {
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

	fileProcessor := common.NewFileProcessor(a.logger)
	resume, err := fileProcessor.ReadResumeFile(args[0], a.cfg.App.MaxFileSize)
	if err != nil {
		return err
	}
	jobDescription, err := fileProcessor.ReadTextFile(args[1])
	if err != nil {
		return err
	}

	flow, err := wizard.NewScanFlow(a.api, a.gate, a.planFunc(), a.session.UserID,
		a.obs.GetMetrics(), a.logger)
	if err != nil {
		return err
	}

	a.logger.Info("Starting scan flow",
		"wizard_id", flow.ID(),
		"resume", args[0],
		"job_chars", len(jobDescription))

	ctx := cmd.Context()
	if _, err := flow.Advance(ctx, wizard.StageUpload, wizard.UploadInput{
		Filename: args[0],
		Content:  resume,
	}); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if _, err := flow.Advance(ctx, wizard.StageAnalyze, wizard.JobInput{
		JobDescription: jobDescription,
	}); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if _, err := flow.Advance(ctx, wizard.StageEvaluate, nil); err != nil {
		if flow.Upselling() {
			printUpsell(a)
			return errors.NewQuotaExceededError(errors.ErrCodeQuotaExceeded,
				"Scan not run: monthly limit reached", err)
		}
		return fmt.Errorf("evaluation failed: %w", err)
	}

	result, err := flow.Advance(ctx, wizard.StageResults, nil)
	if err != nil {
		return err
	}

	a.logger.Info("Scan flow completed", "wizard_id", flow.ID())
	return common.NewOutputHandler(a.logger).HandleOutput(result, scanConfig)
}

func printUpsell(a *app) {
	plan, usage := a.planFunc()()
	fmt.Printf("You've used %d of %d free scans this month (plan: %s).\n",
		usage.ScansUsed, a.gate.FreeScansPerMonth(), plan)
	fmt.Println("Upgrade with 'rezzy upgrade --plan starter' to get unlimited scans.")
}
