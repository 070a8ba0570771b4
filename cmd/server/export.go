package main

import (
	"alcyxob/trainerscribe/internal/storage"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOutDir string

var exportCmd = &cobra.Command{
	Use:   "export <protocol-id>",
	Short: "Render a protocol to PDF and mark it sent",
	Long: `Render a protocol to PDF, write it below --out and mark the protocol
as sent. Without --out the configured document storage is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", "", "Write the PDF below this directory")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var documents storage.DocumentStorage
	if exportOutDir != "" {
		var err error
		documents, err = storage.NewLocalStorage(afero.NewOsFs(), exportOutDir, logger)
		if err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger, documents)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close snapshot backend", zap.Error(err))
		}
	}()

	res, err := a.protocolSvc.Export(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages)\n%s\n", res.FileName, res.Pages, res.DownloadURL)
	return nil
}
