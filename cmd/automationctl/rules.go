package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/spf13/cobra"
)

var (
	ruleProject    uint
	ruleEntity     string
	ruleFrom       string
	ruleTo         string
	ruleThreshold  int
	ruleNotify     bool
	previewStatus  string
	previewPercent int
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage completion-action rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active rules in match order",
	Long: `List active rules. With --project, global rules are listed after the
project's own, in the order the matcher considers them.`,
	Args: cobra.NoArgs,
	RunE: runRulesList,
}

var rulesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace the rule for an (entity, project, source status) scope",
	Long: `Create or replace a rule. Omit --project for a global rule and --from for a
rule that applies whatever the current status is. Setting a rule for a scope
that was deactivated reactivates it.

Examples:
  automationctl rules set --entity issue --to Done
  automationctl rules set --entity action_item --project 5 --from "In Progress" --to Review --threshold 80 --notify`,
	Args: cobra.NoArgs,
	RunE: runRulesSet,
}

var rulesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <rule-id>",
	Short: "Deactivate a rule (it is kept for history)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDeactivate,
}

var rulesPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show which rule would fire for a hypothetical work item",
	Args:  cobra.NoArgs,
	RunE:  runRulesPreview,
}

func init() {
	rulesListCmd.Flags().UintVarP(&ruleProject, "project", "p", 0, "Project id (includes global rules)")
	rulesListCmd.Flags().StringVarP(&ruleEntity, "entity", "e", "", "Entity type (issue, action_item)")

	rulesSetCmd.Flags().StringVarP(&ruleEntity, "entity", "e", "", "Entity type (issue, action_item)")
	rulesSetCmd.Flags().UintVarP(&ruleProject, "project", "p", 0, "Project id (omit for a global rule)")
	rulesSetCmd.Flags().StringVar(&ruleFrom, "from", "", "Source status (omit for any status)")
	rulesSetCmd.Flags().StringVar(&ruleTo, "to", "", "Target status")
	rulesSetCmd.Flags().IntVarP(&ruleThreshold, "threshold", "t", services.DefaultCompletionThreshold, "Completion percentage that fires the rule")
	rulesSetCmd.Flags().BoolVar(&ruleNotify, "notify", false, "Notify the assignee when the rule fires")
	_ = rulesSetCmd.MarkFlagRequired("entity")
	_ = rulesSetCmd.MarkFlagRequired("to")

	rulesPreviewCmd.Flags().StringVarP(&ruleEntity, "entity", "e", "", "Entity type (issue, action_item)")
	rulesPreviewCmd.Flags().UintVarP(&ruleProject, "project", "p", 0, "Project id")
	rulesPreviewCmd.Flags().StringVar(&previewStatus, "status", "", "Current status")
	rulesPreviewCmd.Flags().IntVar(&previewPercent, "percent", 100, "Completion percentage")
	_ = rulesPreviewCmd.MarkFlagRequired("entity")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesSetCmd)
	rulesCmd.AddCommand(rulesDeactivateCmd)
	rulesCmd.AddCommand(rulesPreviewCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	filter := services.RuleFilter{EntityType: ruleEntity}
	if cmd.Flags().Changed("project") {
		filter.ProjectID = &ruleProject
	}

	rules, err := services.NewCompletionRuleService(db).List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(rules)
	}
	if len(rules) == 0 {
		fmt.Println("No active rules.")
		return nil
	}
	printRules(rules)
	return nil
}

func runRulesSet(cmd *cobra.Command, args []string) error {
	req := &services.UpsertRuleRequest{
		EntityType:          ruleEntity,
		TargetStatus:        ruleTo,
		CompletionThreshold: &ruleThreshold,
		NotifyAssignee:      ruleNotify,
	}
	if cmd.Flags().Changed("project") {
		req.ProjectID = &ruleProject
	}
	if cmd.Flags().Changed("from") {
		req.SourceStatus = &ruleFrom
	}

	rule, err := services.NewCompletionRuleService(db).Upsert(cmd.Context(), req)
	if err != nil {
		return err
	}
	services.LogInfo("completion_rules", "upsert", fmt.Sprintf("Rule #%d set from CLI", rule.ID), nil, "", "automationctl", rule)
	if jsonOutput {
		return printJSON(rule)
	}
	printRules([]models.CompletionActionRule{*rule})
	return nil
}

func runRulesDeactivate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid rule id %q", args[0])
	}

	rule, err := services.NewCompletionRuleService(db).Deactivate(cmd.Context(), uint(id))
	if err != nil {
		return err
	}
	services.LogInfo("completion_rules", "deactivate", fmt.Sprintf("Rule #%d deactivated from CLI", rule.ID), nil, "", "automationctl", nil)
	if jsonOutput {
		return printJSON(rule)
	}
	fmt.Printf("Rule #%d deactivated.\n", rule.ID)
	return nil
}

func runRulesPreview(cmd *cobra.Command, args []string) error {
	rule, err := services.NewCompletionRuleService(db).Preview(cmd.Context(), &services.MatchRequest{
		EntityType:    ruleEntity,
		ProjectID:     ruleProject,
		CurrentStatus: previewStatus,
		Percentage:    previewPercent,
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(map[string]interface{}{"matched": rule != nil, "rule": rule})
	}
	if rule == nil {
		fmt.Println("No rule would fire.")
		return nil
	}
	printRules([]models.CompletionActionRule{*rule})
	return nil
}

func printRules(rules []models.CompletionActionRule) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENTITY\tPROJECT\tFROM\tTO\tTHRESHOLD\tNOTIFY")
	for _, r := range rules {
		project := "global"
		if r.ProjectID != nil {
			project = strconv.FormatUint(uint64(*r.ProjectID), 10)
		}
		from := "*"
		if r.SourceStatus != nil {
			from = *r.SourceStatus
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d%%\t%t\n", r.ID, r.EntityType, project, from, r.TargetStatus, r.CompletionThreshold, r.NotifyAssignee)
	}
	w.Flush()
}
