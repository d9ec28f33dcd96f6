// Package native implements a target backend that reads and writes the
// registers of a local process with ptrace(2). Only linux/amd64 is
// supported, on other platforms Attach returns ErrNativeBackendDisabled.
package native

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-delve/dbgcore/pkg/target"
)

// ErrNativeBackendDisabled is returned by Attach on platforms without a
// native backend.
var ErrNativeBackendDisabled = errors.New("native backend not available on " + runtime.GOOS + "/" + runtime.GOARCH)

// Process is a process traced with ptrace.
type Process struct {
	pid     int
	threads []target.Ptid

	ptraceChan     chan func()
	ptraceDoneChan chan interface{}

	detached bool
}

func newProcess(pid int) *Process {
	dbp := &Process{
		pid:            pid,
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan interface{}),
	}
	go dbp.handlePtraceFuncs()
	return dbp
}

// handlePtraceFuncs runs every ptrace call on the same OS thread, ptrace(2)
// expects all commands after PTRACE_ATTACH to come from the thread that
// attached.
func (dbp *Process) handlePtraceFuncs() {
	runtime.LockOSThread()

	for fn := range dbp.ptraceChan {
		fn()
		dbp.ptraceDoneChan <- nil
	}
}

func (dbp *Process) execPtraceFunc(fn func()) {
	dbp.ptraceChan <- fn
	<-dbp.ptraceDoneChan
}

// Pid returns the process id.
func (dbp *Process) Pid() int {
	return dbp.pid
}

// Threads returns the threads that were stopped when attaching.
func (dbp *Process) Threads() ([]target.Ptid, error) {
	return dbp.threads, nil
}

// Close detaches from the process.
func (dbp *Process) Close() error {
	return dbp.Detach()
}

func (dbp *Process) String() string {
	return fmt.Sprintf("process %d", dbp.pid)
}

// tid returns the kernel thread id of ptid.
func tid(ptid target.Ptid) int {
	if ptid.Lwp != 0 {
		return int(ptid.Lwp)
	}
	return ptid.Pid
}

// PrepareToStore does nothing, registers are written back immediately.
func (dbp *Process) PrepareToStore(rb target.RegisterBuffer) error {
	return nil
}
