package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"image-converter-go/internal/converter"
	"image-converter-go/internal/formats"
	"image-converter-go/internal/session"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	outputDir string
	quality   int
	recursive bool
	showTable bool
)

// convertCmd converts the given files and the images inside the given directories.
var convertCmd = &cobra.Command{
	Use:   "convert <file|directory>...",
	Short: "Convert images using the saved rules",
	Long: `Converts every image given on the command line. Directories are expanded
to the images they contain (with --recursive, their subdirectories too).

Each image is written to the output directory under its original name with the
extension chosen by its conversion rule (jpg when no rule matches). Existing
files are overwritten. A file that cannot be converted is recorded in the
conversion log and the batch continues with the next one.

--output and --quality are saved as preferences for later runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args)
	},
}

func init() {
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (saved for later runs)")
	convertCmd.Flags().IntVarP(&quality, "quality", "q", 0, "JPEG/WEBP quality 10-100 (saved for later runs)")
	convertCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	convertCmd.Flags().BoolVar(&showTable, "table", true, "print a table of results")
}

func runConvert(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if cmd.Flags().Changed("quality") {
		if err := a.session.OnQualityCommitted(quality); err != nil {
			return err
		}
	}
	if outputDir != "" {
		if err := a.session.OnOutputDirChosen(outputDir); err != nil {
			return err
		}
	}

	paths, err := expandArgs(args, recursive)
	if err != nil {
		return err
	}
	added, rejected, err := a.session.AddCandidates(paths...)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		a.log.WithField("file", r.Path).Debugf("Skipping: %s", r.Reason)
		if !quiet {
			fmt.Fprintf(os.Stderr, "Skipping %s: %s\n", r.Path, r.Reason)
		}
	}

	var bar *progressbar.ProgressBar
	if !quiet && isTerminal(os.Stderr) {
		bar = progressbar.NewOptions(len(added),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	result, err := a.session.Convert(func(done, total int, o converter.Outcome) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if errors.Is(err, session.ErrNoOutputDir) {
		return fmt.Errorf("%w: pass --output or run 'image-converter output-dir <dir>'", err)
	}
	if err != nil {
		return err
	}

	printf("%s\n", result.Message)
	if showTable {
		printf("%s\n", outcomeTable(result.Outcomes))
	}
	printf("%d of %d converted. Details: %s\n", result.Succeeded(), len(result.Outcomes), a.cfg.ConversionLog.FilePath)
	if verbose {
		printf("\n%s\n\n%s\n", result.Statistics.GetSummary(), result.Statistics.GetEncoderBreakdown())
	}
	return nil
}

// expandArgs replaces directories by the supported images inside them, keeping
// argument order. Plain files pass through for the session to validate.
func expandArgs(args []string, recursive bool) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if formats.IsSupportedSource(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
	}
	return paths, nil
}

func outcomeTable(outcomes []converter.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status, detail, size := "OK", o.DestinationPath, humanize.IBytes(uint64(o.BytesWritten))
		if !o.Success {
			status, detail, size = "FAIL", o.Error, "-"
		} else if o.Warning != "" {
			detail += " (" + o.Warning + ")"
		}
		rows = append(rows, []string{status, filepath.Base(o.SourcePath), o.EncoderName, size, detail})
	}
	return renderTable(
		[]string{"Status", "Source", "Encoder", "Size", "Destination / Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
