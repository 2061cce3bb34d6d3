package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebridge/internal/journal"
	"github.com/pdiddy/officebridge/internal/office"
	"github.com/pdiddy/officebridge/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert Office documents to PDF",
	Long: `Convert exports Word, Excel and PowerPoint documents to PDF through a
headless LibreOffice. The source must exist and the target must not, unless
--overwrite is given. Use "auto" to pick the application from the source
extension, or "batch" to run a YAML manifest of jobs.`,
}

var convertBatchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Convert every job listed in a YAML manifest",
	Long: `Batch reads a manifest of conversion jobs:

  jobs:
    - kind: word
      source: report.docx
      target: out/report.pdf
    - source: figures.xlsx
      target: out/figures.pdf
      overwrite: true

Relative paths are resolved against the manifest's directory. A job with no
kind is detected from its source extension. Jobs run in order; one status line
is printed per job followed by a summary. Jobs whose target already exists are
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvertBatch,
}

func init() {
	for _, kind := range []types.DocumentKind{types.KindWord, types.KindExcel, types.KindPowerPoint, types.KindAuto} {
		convertCmd.AddCommand(newConvertKindCmd(kind))
	}
	convertCmd.AddCommand(convertBatchCmd)

	rootCmd.AddCommand(convertCmd)
}

func newConvertKindCmd(kind types.DocumentKind) *cobra.Command {
	short := fmt.Sprintf("Convert a %s document to PDF", kind.AppName())
	if kind == types.KindAuto {
		short = "Convert a document to PDF, choosing the application by extension"
	}
	cmd := &cobra.Command{
		Use:   string(kind) + " <source> <target>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			job := types.ConversionJob{Kind: kind, Source: args[0], Target: args[1], Overwrite: overwrite}
			return runConvert(commandContext(cmd), job)
		},
	}
	cmd.Flags().Bool("overwrite", false, "replace the target if it exists")
	return cmd
}

// newConverter builds a converter on the configured backend that journals
// every job.
func newConverter(rec journal.Recorder) (*office.Converter, error) {
	launcher, err := office.NewLibreOffice(cfg.Conversion, logger)
	if err != nil {
		return nil, err
	}
	return office.NewConverter(launcher,
		office.WithLogger(logger),
		office.WithTimeout(cfg.Conversion.Timeout),
		office.WithObserver(func(job types.ConversionJob, err error) {
			record(context.Background(), rec, "convert "+string(job.Kind), job.Source, job.Target, err)
		}),
	), nil
}

func runConvert(ctx context.Context, job types.ConversionJob) error {
	rec, closeJournal := openJournal()
	defer closeJournal()

	conv, err := newConverter(rec)
	if err != nil {
		return err
	}
	return printStatus(os.Stdout, conv.Convert(ctx, job))
}

func runConvertBatch(cmd *cobra.Command, args []string) error {
	jobs, err := office.LoadManifest(args[0])
	if err != nil {
		return err
	}

	rec, closeJournal := openJournal()
	defer closeJournal()

	conv, err := newConverter(rec)
	if err != nil {
		return err
	}

	result := conv.ConvertBatch(commandContext(cmd), jobs, os.Stdout)
	if result.HasFailures() {
		return errReported
	}
	return nil
}
