package cli

import (
	"fmt"

	"rezzy/internal/common"
	"rezzy/internal/types"

	"github.com/spf13/cobra"
)

var subscriptionCmd = &cobra.Command{
	Use:     "subscription",
	Short:   "Show the current subscription",
	Args:    cobra.NoArgs,
	PreRunE: formatPreRun(&subscriptionConfig),
	RunE:    runSubscription,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Start a subscription upgrade",
	Long: `Start a checkout session for the target plan. The command prints the
session id for the hosted payment page; the plan changes once the backend
confirms payment.`,
	Args: cobra.NoArgs,
	RunE: runUpgrade,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the paid subscription at period end",
	Args:  cobra.NoArgs,
	RunE:  runCancel,
}

var (
	subscriptionConfig common.CommandConfig
	upgradePlan        string
)

func init() {
	addOutputFlags(subscriptionCmd, &subscriptionConfig)
	upgradeCmd.Flags().StringVar(&upgradePlan, "plan", "starter", "Target plan: starter or premium")
}

func runSubscription(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ensureReady(cmd.Context()); err != nil {
		return err
	}

	sub, err := a.api.GetSubscription(cmd.Context(), a.session.UserID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription: %w", err)
	}

	return common.NewOutputHandler(a.logger).HandleOutput(sub, subscriptionConfig)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	target := types.Plan(upgradePlan)
	if !target.Valid() || target == types.PlanFree {
		return fmt.Errorf("invalid target plan %q; choose starter or premium", upgradePlan)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ensureReady(cmd.Context()); err != nil {
		return err
	}

	session, err := a.api.UpgradeSubscription(cmd.Context(), a.session.UserID, target)
	if err != nil {
		return fmt.Errorf("failed to start upgrade: %w", err)
	}

	fmt.Printf("Checkout session created: %s\n", session.SessionID)
	fmt.Println("Complete the payment on the hosted checkout page to activate the plan.")
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.ensureReady(cmd.Context()); err != nil {
		return err
	}

	sub, err := a.api.CancelSubscription(cmd.Context(), a.session.UserID)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	fmt.Printf("Subscription will end at %s (status: %s).\n", sub.CurrentPeriodEnd, sub.Status)
	return nil
}
