package metadata

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultExiftoolBinary is looked up on PATH.
const DefaultExiftoolBinary = "exiftool"

var ErrExiftoolMissing = errors.New("exiftool not found")

// ExiftoolCopier copies all writable tags from a source file onto its
// converted file by running exiftool.
type ExiftoolCopier struct {
	binary string
}

// NewExiftoolCopier returns a copier using binary, or exiftool from PATH
// when binary is empty.
func NewExiftoolCopier(binary string) *ExiftoolCopier {
	if binary == "" {
		binary = DefaultExiftoolBinary
	}
	return &ExiftoolCopier{binary: binary}
}

// Available reports whether the exiftool binary can be found.
func (c *ExiftoolCopier) Available() bool {
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Copy overwrites the tags of destinationPath with those of sourcePath.
func (c *ExiftoolCopier) Copy(sourcePath, destinationPath string) error {
	bin, err := exec.LookPath(c.binary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExiftoolMissing, err)
	}

	cmd := exec.Command(bin, "-TagsFromFile", sourcePath, "-overwrite_original", destinationPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("exiftool copy failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
