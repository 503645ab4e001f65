package main

import (
	"fmt"
	"os"

	"epg-combiner/config"
	"epg-combiner/consts"
	"epg-combiner/job"
	"epg-combiner/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "epg-combiner",
	Short:         "Merge XMLTV feeds and publish the combined guide",
	Long:          "Downloads every configured gzip XMLTV feed, merges their programmes under one <tv> root, archives the previous guide and publishes the new one to GitHub.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCombine,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", consts.CONFIG_FILE, "Path to the YAML configuration")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func runCombine(cmd *cobra.Command, _ []string) error {
	log := logger.Setup(logger.Config{Debug: debug})
	log.Info("Starting EPG update process...")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	res, err := job.Run(cmd.Context(), cfg, job.Options{})
	if err != nil {
		return fmt.Errorf("failed to update EPG XML: %w", err)
	}

	if res.Combined == "" {
		log.Warn("Nothing combined, publish skipped.", "inputs", len(res.Inputs))
		return nil
	}
	log.Info("EPG update completed.",
		"inputs", len(res.Inputs),
		"created", len(res.Publish.Created),
		"updated", len(res.Publish.Updated),
		"failed", len(res.Publish.Failed),
		"aborted", res.Publish.Aborted,
	)
	return nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
