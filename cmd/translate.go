package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"medtranslate/internal/logger"
	"medtranslate/internal/pipeline"
	"medtranslate/pkg/models"
)

var translateCmd = &cobra.Command{
	Use:     "translate [text]",
	Short:   "Translate text",
	Example: `  medtranslate translate "Tomar una tableta cada 8 horas" --target en`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().String("source", models.AutoDetectLanguage, "Source language code, or auto")
	translateCmd.Flags().String("target", models.DefaultTargetLanguage, "Target language code")
	translateCmd.Flags().Bool("json", false, "Output as JSON")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("translate")

	source, _ := cmd.Flags().GetString("source")
	target, _ := cmd.Flags().GetString("target")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	svc, err := loadServices(ctx, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.orchestrator(nil).Translate(ctx, pipeline.TranslateRequest{
		Text:           args[0],
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return fmt.Errorf("translation failed: %s", pipeline.Message(err))
	}

	if jsonOutput {
		return printJSON(result)
	}
	fmt.Printf("[%s -> %s] %s\n", result.SourceLanguage, result.TargetLanguage, result.TranslatedText)
	return nil
}
