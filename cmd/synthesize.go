package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medtranslate/internal/logger"
	"medtranslate/internal/pipeline"
	"medtranslate/pkg/models"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize [text]",
	Short: "Read text aloud and print the audio URL",
	Long: `Start a speech synthesis task and wait for the mp3 it produces.

Supported languages: en, de, fr, it, es. With --async the task id is printed
right away; check on it later with --status.`,
	Example: `  medtranslate synthesize "Take one tablet every 8 hours"
  medtranslate synthesize "Prenez un comprimé" --target fr --async
  medtranslate synthesize --status 6f1e...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSynthesize,
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)

	synthesizeCmd.Flags().String("target", models.DefaultTargetLanguage, "Language of the text")
	synthesizeCmd.Flags().Bool("async", false, "Print the task id without waiting")
	synthesizeCmd.Flags().String("status", "", "Show the status of an existing task")
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("synthesize")

	target, _ := cmd.Flags().GetString("target")
	async, _ := cmd.Flags().GetBool("async")
	taskID, _ := cmd.Flags().GetString("status")

	if taskID == "" && len(args) == 0 {
		return fmt.Errorf("text is required unless --status is given")
	}

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	svc, err := loadServices(ctx, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	orch := svc.orchestrator(nil)

	if taskID != "" {
		task, err := orch.SynthesisStatus(ctx, taskID)
		if err != nil {
			return fmt.Errorf("status lookup failed: %s", pipeline.Message(err))
		}
		return printJSON(task)
	}

	req := pipeline.SynthesizeRequest{Text: args[0], TargetLanguage: target}
	if async {
		task, err := orch.StartSynthesis(ctx, req)
		if err != nil {
			return fmt.Errorf("speech synthesis failed: %s", pipeline.Message(err))
		}
		return printJSON(task)
	}

	url, err := orch.Synthesize(ctx, req)
	if err != nil {
		return fmt.Errorf("speech synthesis failed: %s", pipeline.Message(err))
	}
	fmt.Println(url)
	return nil
}
