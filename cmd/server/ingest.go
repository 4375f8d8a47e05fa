package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"heropage/internal/service"
)

var (
	ingestManifest string
	exportFormat   string
	exportOutput   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load image variants into the catalog",
	Long: `Scan an image directory (default: images.dir from the config) or import a
YAML/JSON manifest, and replace the catalog contents with the result.

Variant files are named <stem>-<width>w.<ext> next to the original.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the catalog as a manifest",
	RunE:  runExport,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestManifest, "manifest", "", "Import this manifest instead of scanning a directory")
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Manifest format (yaml|json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(ingestCmd, exportCmd)
}

// ingest prefers the manifest when one is configured
func ingest(ctx context.Context, svc *service.HeroService, dir, manifest string) error {
	var err error
	if manifest != "" {
		_, err = svc.IngestManifest(ctx, manifest)
	} else {
		_, err = svc.Ingest(ctx, dir)
	}
	return err
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.heroService(a.content(), nil)
	if err != nil {
		return err
	}

	dir := a.cfg.Images.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	ctx := cmd.Context()
	if ingestManifest != "" {
		result, err := svc.IngestManifest(ctx, ingestManifest)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s: %d upserted, %d removed\n", ingestManifest, result.Upserted, result.Removed)
		return nil
	}

	result, err := svc.Ingest(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned %s: %d upserted, %d removed\n", dir, result.Upserted, result.Removed)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.heroService(a.content(), nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}
	return svc.ExportManifest(cmd.Context(), out, exportFormat)
}
