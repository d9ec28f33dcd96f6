//go:build !linux || !amd64

package native

import (
	"github.com/go-delve/dbgcore/pkg/target"
)

// Attach returns ErrNativeBackendDisabled.
func Attach(_ int) (*Process, error) {
	return nil, ErrNativeBackendDisabled
}

// Detach returns ErrNativeBackendDisabled.
func (dbp *Process) Detach() error {
	return ErrNativeBackendDisabled
}

// FetchRegisters returns ErrNativeBackendDisabled.
func (dbp *Process) FetchRegisters(rb target.RegisterBuffer, regnum int) error {
	return ErrNativeBackendDisabled
}

// StoreRegisters returns ErrNativeBackendDisabled.
func (dbp *Process) StoreRegisters(rb target.RegisterBuffer, regnum int) error {
	return ErrNativeBackendDisabled
}
