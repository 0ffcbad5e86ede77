package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/spf13/cobra"
)

var evaluateChecklist uint

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [<entity-type> <id>]",
	Short: "Re-run automation for a work item or checklist",
	Long: `Re-run automation as if a checklist item had just changed. Useful after
rules were added for items whose checklists were already complete.

Examples:
  automationctl evaluate issue 42
  automationctl evaluate --checklist 7`,
	Args: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("checklist") {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().UintVar(&evaluateChecklist, "checklist", 0, "Evaluate the work item linked to this checklist")
}

// directNotifier delivers intents before the command exits.
type directNotifier struct {
	svc *services.NotificationService
}

func (n directNotifier) Enqueue(ctx context.Context, intent *services.NotificationIntent) error {
	return n.svc.Deliver(ctx, intent)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if !cfg.Automation.Enabled {
		return fmt.Errorf("automation is disabled in config")
	}
	automation := services.NewAutomationService(db, directNotifier{svc: services.NewNotificationService(db)}, nil, cfg.Automation)

	var result *services.AutomationResult
	if cmd.Flags().Changed("checklist") {
		result = automation.OnChecklistChanged(cmd.Context(), evaluateChecklist)
	} else {
		if _, err := services.DefaultWorkItemRepositories().For(args[0]); err != nil {
			return err
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		result = automation.EvaluateWorkItem(cmd.Context(), args[0], uint(id))
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{"transitioned": result != nil, "automation": result})
	}
	if result == nil {
		fmt.Println("No transition.")
		return nil
	}
	fmt.Printf("%s #%d: %q -> %q (%d%% complete, rule #%d)\n",
		result.EntityType, result.EntityID, result.OldStatus, result.NewStatus,
		result.Completion.Percentage, result.Rule.ID)
	return nil
}
