package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"medtranslate/internal/logger"
	"medtranslate/internal/pipeline"
	"medtranslate/pkg/models"
)

var processCmd = &cobra.Command{
	Use:   "process [file-id]",
	Short: "Extract and translate the text of an uploaded image",
	Long: `Run OCR on an uploaded image and translate the result.

In full_text mode the whole text is translated at once. In structured mode
medical entities are detected first and each one is translated on its own;
an entity whose translation fails is marked "Translation failed." and the
rest are still translated.`,
	Example: `  # Translate an uploaded scan to French
  medtranslate process 3f2c...e1.png --target fr

  # Entity by entity, as JSON
  medtranslate process 3f2c...e1.png --mode structured --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("mode", string(models.ModeFullText), "Processing mode: full_text or structured")
	processCmd.Flags().String("source", models.AutoDetectLanguage, "Source language code, or auto")
	processCmd.Flags().String("target", models.DefaultTargetLanguage, "Target language code")
	processCmd.Flags().Bool("json", false, "Output as JSON")
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("process")

	mode, _ := cmd.Flags().GetString("mode")
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

	result, err := svc.orchestrator(nil).Process(ctx, pipeline.ProcessRequest{
		FileID:         args[0],
		Mode:           models.Mode(mode),
		SourceLanguage: source,
		TargetLanguage: target,
	})
	if err != nil {
		return fmt.Errorf("processing failed: %s", pipeline.Message(err))
	}

	if jsonOutput {
		return printJSON(result)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== Original (%s) ===\n%s\n\n", result.SourceLanguage, result.OriginalText)
	if result.Mode == models.ModeStructured {
		fmt.Fprintf(&out, "=== Entities (%s) ===\n", result.TargetLanguage)
		for _, e := range result.MedicalEntities {
			fmt.Fprintf(&out, "%-28s %-22s %s -> %s\n", e.Category, e.Type, e.Text, e.TranslatedText)
		}
	} else {
		fmt.Fprintf(&out, "=== Translation (%s) ===\n%s\n", result.TargetLanguage, result.TranslatedText)
	}

	_, err = os.Stdout.WriteString(out.String())
	return err
}
