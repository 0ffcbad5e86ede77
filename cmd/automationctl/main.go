// Command automationctl administers checklist status automation from the
// shell: completion rules, manual re-evaluation and counter repair.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/config"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/services"
	"github.com/avrvenkatesa/multi-project-tracker-sub006/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	configPath string
	jsonOutput bool
	verbose    bool

	cfg *config.Config
	db  *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:   "automationctl",
	Short: "Administer checklist-driven status automation",
	Long: `automationctl manages the rules that move issues and action items when
their checklists reach a completion threshold.

Examples:
  automationctl rules list --project 5
  automationctl rules set --entity issue --from "In Progress" --to Done --threshold 80
  automationctl evaluate issue 42
  automationctl recount`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(recountCmd)
	rootCmd.AddCommand(tokenCmd)
}

// setup loads config and opens the database for every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Init(level)

	db, err = models.Open(&cfg.Database, gormlogger.Silent)
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	services.InitSystemLogger(db)
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
