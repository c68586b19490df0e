// Package preflight provides pre-flight validation of the project layout and
// the binaries used to build rendered images.
package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"

	"github.com/cameronsjo/dockergen/internal/catalog"
)

// BinaryCheck represents a binary and its purpose.
type BinaryCheck struct {
	Name        string
	Required    bool   // false = warning only
	InstallHint string // e.g., "brew install hadolint" or "https://..."
}

// Binaries used on rendered output. Rendering itself needs none of them.
var optionalBinaries = []BinaryCheck{
	{
		Name:        "docker",
		Required:    false,
		InstallHint: "Install Docker to build rendered Dockerfiles: https://docs.docker.com/get-docker/",
	},
}

// Layout is the set of paths a render needs.
type Layout struct {
	Descriptor string
	Templates  string
	Output     string
}

// Severity classifies a Finding.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

// Finding is the outcome of one check.
type Finding struct {
	Check    string
	Message  string
	Severity Severity
}

// CheckBinaries returns the binaries in bins that are not in PATH.
func CheckBinaries(bins []BinaryCheck) []BinaryCheck {
	var missing []BinaryCheck
	for _, bin := range bins {
		if !IsBinaryAvailable(bin.Name) {
			missing = append(missing, bin)
		}
	}
	return missing
}

// IsBinaryAvailable checks if a specific binary is available in PATH.
func IsBinaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// GetOptionalBinaries returns the optional binaries.
func GetOptionalBinaries() []BinaryCheck {
	return optionalBinaries
}

// CheckLayout inspects the descriptor, template root and output directory.
func CheckLayout(l Layout) []Finding {
	return []Finding{
		checkDescriptor(l.Descriptor),
		checkTemplates(l.Templates),
		checkOutput(l.Output),
	}
}

func checkDescriptor(path string) Finding {
	f := Finding{Check: "descriptor"}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.Severity, f.Message = SeverityError, fmt.Sprintf("%s not found", path)
	case err != nil:
		f.Severity, f.Message = SeverityError, err.Error()
	case !info.Mode().IsRegular():
		f.Severity, f.Message = SeverityError, fmt.Sprintf("%s is not a file", path)
	default:
		f.Message = path
	}
	return f
}

func checkTemplates(dir string) Finding {
	f := Finding{Check: "templates"}
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.Severity, f.Message = SeverityError, fmt.Sprintf("%s not found", dir)
		return f
	case err != nil:
		f.Severity, f.Message = SeverityError, err.Error()
		return f
	case !info.IsDir():
		f.Severity, f.Message = SeverityError, fmt.Sprintf("%s is not a directory", dir)
		return f
	}

	names, err := catalog.New(dir).List()
	if err != nil {
		f.Severity, f.Message = SeverityError, err.Error()
		return f
	}
	if len(names) == 0 {
		f.Severity, f.Message = SeverityWarning, fmt.Sprintf("%s contains no templates", dir)
		return f
	}
	f.Message = fmt.Sprintf("%s (%d templates)", dir, len(names))
	return f
}

func checkOutput(dir string) Finding {
	f := Finding{Check: "output"}
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.Message = fmt.Sprintf("%s (will be created)", dir)
	case err != nil:
		f.Severity, f.Message = SeverityError, err.Error()
	case !info.IsDir():
		f.Severity, f.Message = SeverityError, fmt.Sprintf("%s exists and is not a directory", dir)
	default:
		f.Message = dir
	}
	return f
}

// CheckAll performs all pre-flight checks and returns warnings and errors.
// Missing optional binaries are warnings.
func CheckAll(l Layout) (warnings []string, errs []string) {
	for _, f := range CheckLayout(l) {
		switch f.Severity {
		case SeverityWarning:
			warnings = append(warnings, f.Check+": "+f.Message)
		case SeverityError:
			errs = append(errs, f.Check+": "+f.Message)
		}
	}

	for _, bin := range CheckBinaries(optionalBinaries) {
		line := bin.Name + ": " + bin.InstallHint
		if bin.Required {
			errs = append(errs, line)
		} else {
			warnings = append(warnings, line)
		}
	}

	return warnings, errs
}
