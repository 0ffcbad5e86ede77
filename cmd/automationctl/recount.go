package main

import (
	"fmt"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/spf13/cobra"
)

var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Repair checklist counters from their item rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fixed, err := services.NewChecklistService(db, nil).RecountAll(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(map[string]int{"fixed": fixed})
		}
		fmt.Printf("Repaired %d checklist(s).\n", fixed)
		return nil
	},
}
