package gdbarch

import (
	"fmt"
	"strings"
)

// MisuseError is the value used to panic when the architecture (or a
// register cache built on it) is used incorrectly: calling an unset hook,
// using a register number out of range, mutating an initialized
// architecture, re-entering the initializer of a data slot.
type MisuseError struct {
	Msg string
}

func (err *MisuseError) Error() string {
	return "internal error: " + err.Msg
}

// InternalError panics with a *MisuseError.
func InternalError(format string, args ...interface{}) {
	panic(&MisuseError{Msg: fmt.Sprintf(format, args...)})
}

// VerifyError is returned when a newly built architecture is missing
// fields that have no default. All the missing fields are reported at once.
type VerifyError struct {
	Arch    string
	Missing []string
}

func (err *VerifyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "verify_gdbarch: the following are invalid for %s ...", err.Arch)
	for _, m := range err.Missing {
		b.WriteString("\n\t")
		b.WriteString(m)
	}
	return b.String()
}

// ConstructionError is returned by FindByInfo when the architecture
// selected for a target could not be built.
type ConstructionError struct {
	Info Info
	Err  error
}

func (err *ConstructionError) Error() string {
	return fmt.Sprintf("could not select an architecture for this target: %v", err.Err)
}

func (err *ConstructionError) Unwrap() error {
	return err.Err
}
