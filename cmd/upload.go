package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"medtranslate/internal/logger"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [image-file]",
	Short: "Upload a document image to storage",
	Long: `Upload an image to the storage bucket under a generated key.

The printed file id is what "medtranslate process" expects.`,
	Example: `  medtranslate upload prescription.png`,
	Args:    cobra.ExactArgs(1),
	RunE:    runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("upload")
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to read file")
		return fmt.Errorf("failed to read file: %w", err)
	}

	ctx, cancel := commandContext(cmd, log)
	defer cancel()

	svc, err := loadServices(ctx, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	obj, err := svc.gateway.Upload(ctx, data, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	return printJSON(obj)
}
