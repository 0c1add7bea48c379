package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"image-converter-go/internal/formats"

	"github.com/spf13/cobra"
)

// rulesCmd groups the conversion rule commands.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show and edit per-format conversion rules",
	Long: `A rule maps a source format to the format it is converted to, e.g.
"png -> webp". Formats without a rule are converted to jpg.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesList()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversion rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesList()
	},
}

var rulesSetCmd = &cobra.Command{
	Use:   "set <source> <destination>",
	Short: "Convert <source> images to <destination>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesSet(args[0], args[1])
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:     "remove <source>",
	Aliases: []string{"rm"},
	Short:   "Remove the rule for <source>",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRulesRemove(args[0])
	},
}

// qualityCmd shows or sets the JPEG/WEBP quality.
var qualityCmd = &cobra.Command{
	Use:   "quality [10-100]",
	Short: "Show or set the JPEG/WEBP quality",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuality(args)
	},
}

// outputDirCmd shows or sets the output directory.
var outputDirCmd = &cobra.Command{
	Use:   "output-dir [directory]",
	Short: "Show or set the output directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOutputDir(args)
	},
}

// formatsCmd lists the supported formats.
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported source formats and their destinations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFormats()
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesSetCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
}

func runRulesList() error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	rules := a.session.Preferences().Rules
	var rows [][]string
	for _, src := range formats.CatalogSources() {
		dst := rules.Resolve(src)
		origin := "default"
		if _, ok := rules[src]; ok {
			origin = "rule"
		}
		rows = append(rows, []string{src, dst, formats.EncoderName(dst), origin})
	}
	// Rules for formats outside the catalog are kept and shown too.
	for _, r := range rules.Entries() {
		if !slices.Contains(formats.CatalogSources(), r.Source) {
			rows = append(rows, []string{r.Source, r.Destination, formats.EncoderName(r.Destination), "rule"})
		}
	}

	fmt.Println(renderTable(
		[]string{"Source", "Destination", "Encoder", "From"},
		rows,
		nil,
	))
	return nil
}

func runRulesSet(src, dst string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	changed, err := a.session.OnRuleAdded(src, dst)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("source and destination must not be empty")
	}

	src, dst = strings.ToLower(strings.TrimSpace(src)), strings.ToLower(strings.TrimSpace(dst))
	if !slices.Contains(formats.AllowedDestinations(src), dst) {
		printf("Note: %s is not a listed destination for %s; the rule is kept anyway\n", dst, src)
	}
	printf("%s -> %s\n", src, dst)
	return nil
}

func runRulesRemove(src string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.session.OnRuleRemoved(src)
	if err != nil {
		return err
	}
	if removed {
		printf("Removed rule for %s\n", src)
	} else {
		printf("No rule for %s\n", src)
	}
	return nil
}

func runQuality(args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		fmt.Println(a.session.Preferences().Quality)
		return nil
	}

	q, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("quality must be a number: %w", err)
	}
	if err := a.session.OnQualityCommitted(q); err != nil {
		return err
	}
	printf("Quality set to %d\n", q)
	return nil
}

func runOutputDir(args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		dir := a.session.Preferences().OutputDir
		if dir == "" {
			dir = "(not set)"
		}
		fmt.Println(dir)
		return nil
	}

	if err := a.session.OnOutputDirChosen(args[0]); err != nil {
		return err
	}
	printf("Output directory set to %s\n", a.session.Preferences().OutputDir)
	return nil
}

func runFormats() error {
	var rows [][]string
	for _, src := range formats.CatalogSources() {
		rows = append(rows, []string{src, strings.Join(formats.AllowedDestinations(src), ", ")})
	}
	fmt.Println(renderTable([]string{"Source", "Destinations"}, rows, nil))
	return nil
}
