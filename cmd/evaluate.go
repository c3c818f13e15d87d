package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"candidate-screening/internal/helper"
	"candidate-screening/internal/parser"
)

var (
	evalCV       string
	evalReport   string
	evalJobTitle string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one candidate synchronously and print the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(evalJobTitle) == "" {
			return errors.New("--job-title must not be empty")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		kb, err := openKnowledgeBase(ctx, cfg)
		if err != nil {
			return err
		}
		evaluator, err := newEvaluator(ctx, cfg, kb)
		if err != nil {
			return err
		}

		result, err := evaluator.Evaluate(ctx, parser.ExtractText(evalCV), parser.ExtractText(evalReport), strings.TrimSpace(evalJobTitle))
		if err != nil {
			return err
		}
		helper.FprettyPrint(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evalCV, "cv", "", "path to the candidate CV")
	evaluateCmd.Flags().StringVar(&evalReport, "report", "", "path to the project report")
	evaluateCmd.Flags().StringVar(&evalJobTitle, "job-title", "", "job title to evaluate against")
	_ = evaluateCmd.MarkFlagRequired("cv")
	_ = evaluateCmd.MarkFlagRequired("report")
	_ = evaluateCmd.MarkFlagRequired("job-title")
	rootCmd.AddCommand(evaluateCmd)
}
