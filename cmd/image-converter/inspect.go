package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"image-converter-go/internal/metadata"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var useExiftool bool

// inspectCmd shows what the converter knows about a file.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show format, size and metadata of an image",
	Long: `Shows the detected format, dimensions, allowed destinations and the EXIF
tags of an image. With --exiftool, tags reported by exiftool are shown as well.
This is useful to check what metadata --preserve would copy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, args[0])
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&useExiftool, "exiftool", false, "also query the exiftool binary")
}

func runInspect(cmd *cobra.Command, path string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	withExiftool := a.cfg.Metadata.Inspect
	if cmd.Flags().Changed("exiftool") {
		withExiftool = useExiftool
	}

	info, err := metadata.NewFileInspector(a.log, withExiftool).Inspect(path)
	if err != nil {
		return err
	}

	format := info.Format
	if format == "" {
		format = "unreadable"
	}
	dst := a.session.Preferences().Rules.Resolve(info.Extension)
	rows := [][]string{
		{"Path", info.Path},
		{"Format", format},
		{"Supported", strconv.FormatBool(info.Supported)},
		{"Dimensions", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"Size", humanize.IBytes(uint64(info.Size))},
		{"Modified", info.ModTime.Format(time.DateTime)},
		{"Destinations", strings.Join(info.Destination, ", ")},
		{"Converts to", dst},
	}
	fmt.Println(renderTable([]string{"Field", "Value"}, rows, nil))

	if len(info.EXIF) > 0 {
		fmt.Println(tagTable("EXIF tag", info.EXIF))
	} else {
		printf("No EXIF data found\n")
	}
	if len(info.Exiftool) > 0 {
		fmt.Println(tagTable("exiftool tag", info.Exiftool))
	}
	return nil
}

func tagTable(header string, tags map[string]string) string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, tags[name]})
	}
	return renderTable([]string{header, "Value"}, rows, nil)
}
