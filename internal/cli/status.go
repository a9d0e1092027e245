package cli

import (
	"rezzy/internal/common"
	"rezzy/internal/types"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Bootstrap the account and show its current state",
	Long: `Bootstrap the account against the backend and print the resulting
state: plan tier, monthly usage, onboarding status, and whether the client is
running degraded. Safe to run repeatedly; account creation is an upsert.`,
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&statusConfig),
	RunE:    runStatus,
}

var statusConfig common.CommandConfig

func init() {
	addOutputFlags(statusCmd, &statusConfig)
}

// statusReport is the printable bootstrap outcome.
type statusReport struct {
	Phase      string                `json:"phase"`
	Degraded   bool                  `json:"degraded"`
	Account    *types.Account        `json:"account,omitempty"`
	Usage      *types.UsageSnapshot  `json:"usage,omitempty"`
	Onboarding types.OnboardingState `json:"onboarding"`
	Advisory   string                `json:"advisory,omitempty"`
	Breaker    map[string]any        `json:"circuitBreaker,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.ensureReady(cmd.Context())
	if err != nil {
		return err
	}

	report := statusReport{
		Phase:      string(snap.Phase),
		Degraded:   snap.Degraded,
		Account:    snap.Account,
		Usage:      snap.Usage,
		Onboarding: snap.Onboarding,
		Breaker:    a.api.GetCircuitBreakerStats(),
	}
	if snap.LastErr != nil {
		report.Advisory = snap.LastErr.Error()
	}

	return common.NewOutputHandler(a.logger).HandleOutput(report, statusConfig)
}
