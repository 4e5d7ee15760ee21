package flatlay

import (
	"fmt"
	"os"
	"os/exec"
)

// formatterCommand is the external source formatter invoked after
// emission. It must rewrite files in place, idempotently, and preserve
// semantics. Overridable for testing.
var formatterCommand = "clang-format"

var formatterArgs = []string{"-i", "-style=file"}

// ValidateAndFormat checks that the emitted pair exists and runs the
// external formatter over both files with the project-local style
// configuration. Formatter failures (including a missing formatter
// binary) are reported as ErrFormat; a missing emitted file surfaces the
// underlying os error.
func ValidateAndFormat(headerPath, implPath string) error {
	for _, path := range []string{headerPath, implPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("validate emitted file: %w", err)
		}
	}

	args := append(append([]string(nil), formatterArgs...), headerPath, implPath)
	cmd := exec.Command(formatterCommand, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s: %v (%s)", ErrFormat, formatterCommand, err, out)
	}
	return nil
}
