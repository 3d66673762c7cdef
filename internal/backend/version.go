package backend

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"tinygo.org/x/go-llvm"
)

// SupportedLLVM is the range of LLVM releases whose C API (opaque pointers,
// typed loads and calls) the emitter is written against.
const SupportedLLVM = ">= 15.0.0"

// CheckLLVMVersion reports whether version, as spelled by llvm.Version
// (for example "18.1.8" or "19.1.0git"), is supported.
func CheckLLVMVersion(version string) error {
	constraint, err := semver.NewConstraint(SupportedLLVM)
	if err != nil {
		return err
	}

	v, err := semver.NewVersion(numericPrefix(version))
	if err != nil {
		return fmt.Errorf("cannot parse LLVM version %q: %w", version, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("LLVM %s is not supported, need %s", version, SupportedLLVM)
	}
	return nil
}

// CheckLinkedLLVM checks the LLVM this binary is linked against.
func CheckLinkedLLVM() error {
	return CheckLLVMVersion(llvm.Version)
}

func numericPrefix(version string) string {
	end := strings.IndexFunc(version, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if end == -1 {
		return version
	}
	return version[:end]
}
