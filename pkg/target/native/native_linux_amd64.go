package native

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"

	sys "golang.org/x/sys/unix"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/target"
)

// Attach stops every thread of process pid with PTRACE_ATTACH.
func Attach(pid int) (*Process, error) {
	dbp := newProcess(pid)
	tids, err := taskList(pid)
	if err != nil {
		dbp.close()
		return nil, err
	}
	for _, lwp := range tids {
		var err error
		dbp.execPtraceFunc(func() {
			if err = sys.PtraceAttach(lwp); err == nil {
				err = waitStopped(lwp)
			}
		})
		if err != nil {
			dbp.Detach()
			return nil, fmt.Errorf("could not attach to thread %d: %v", lwp, err)
		}
		dbp.threads = append(dbp.threads, target.Ptid{Pid: pid, Lwp: int64(lwp)})
		if logflags.Target() {
			logflags.TargetLogger().Debugf("attached to %d.%d", pid, lwp)
		}
	}
	return dbp, nil
}

// taskList returns the threads of process pid, the thread group leader
// first.
func taskList(pid int) ([]int, error) {
	dir, err := os.Open(fmt.Sprintf("/proc/%d/task", pid))
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	tids := []int{pid}
	for _, name := range names {
		tid, err := strconv.Atoi(name)
		if err != nil || tid == pid {
			continue
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

func waitStopped(lwp int) error {
	var status sys.WaitStatus
	if _, err := sys.Wait4(lwp, &status, sys.WALL, nil); err != nil {
		return err
	}
	if !status.Stopped() {
		return fmt.Errorf("thread %d did not stop: %#x", lwp, uint32(status))
	}
	return nil
}

// Detach detaches from every thread, letting the process run.
func (dbp *Process) Detach() error {
	if dbp.detached {
		return nil
	}
	var firstErr error
	for _, ptid := range dbp.threads {
		var err error
		dbp.execPtraceFunc(func() { err = sys.PtraceDetach(tid(ptid)) })
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	dbp.detached = true
	dbp.close()
	return firstErr
}

func (dbp *Process) close() {
	close(dbp.ptraceChan)
}

// ptraceRegField returns the field of regs holding the register called
// name.
func ptraceRegField(regs *sys.PtraceRegs, name string) *uint64 {
	switch name {
	case "rax":
		return &regs.Rax
	case "rbx":
		return &regs.Rbx
	case "rcx":
		return &regs.Rcx
	case "rdx":
		return &regs.Rdx
	case "rsi":
		return &regs.Rsi
	case "rdi":
		return &regs.Rdi
	case "rbp":
		return &regs.Rbp
	case "rsp":
		return &regs.Rsp
	case "r8":
		return &regs.R8
	case "r9":
		return &regs.R9
	case "r10":
		return &regs.R10
	case "r11":
		return &regs.R11
	case "r12":
		return &regs.R12
	case "r13":
		return &regs.R13
	case "r14":
		return &regs.R14
	case "r15":
		return &regs.R15
	case "rip":
		return &regs.Rip
	case "eflags":
		return &regs.Eflags
	case "cs":
		return &regs.Cs
	case "ss":
		return &regs.Ss
	case "ds":
		return &regs.Ds
	case "es":
		return &regs.Es
	case "fs":
		return &regs.Fs
	case "gs":
		return &regs.Gs
	case "fs_base":
		return &regs.Fs_base
	case "gs_base":
		return &regs.Gs_base
	case "orig_rax":
		return &regs.Orig_rax
	}
	return nil
}

func (dbp *Process) getRegs(ptid target.Ptid) (*sys.PtraceRegs, error) {
	if dbp.detached {
		return nil, fmt.Errorf("%s: detached", dbp)
	}
	var regs sys.PtraceRegs
	var err error
	dbp.execPtraceFunc(func() { err = sys.PtraceGetRegs(tid(ptid), &regs) })
	return &regs, err
}

// supplyRegs copies the registers in regs that a knows about to rb.
func supplyRegs(rb target.RegisterBuffer, regs *sys.PtraceRegs) {
	a := rb.Arch()
	buf := make([]byte, 8)
	for i := 0; i < a.NumRegs(); i++ {
		field := ptraceRegField(regs, a.RegisterName(i))
		size := regcache.RegisterSize(a, i)
		if field == nil || size > len(buf) {
			continue
		}
		binary.LittleEndian.PutUint64(buf, *field)
		rb.RawSupply(i, buf[:size])
	}
}

// FetchRegisters reads the general purpose registers of the thread with
// PTRACE_GETREGS. The floating point registers are not read and remain
// unavailable.
func (dbp *Process) FetchRegisters(rb target.RegisterBuffer, regnum int) error {
	if rb.Arch().ArchInfo().Mach != gdbarch.MachX8664 {
		return fmt.Errorf("%s: can not read registers of %s", dbp, rb.Arch())
	}
	regs, err := dbp.getRegs(rb.Ptid())
	if err != nil {
		return err
	}
	supplyRegs(rb, regs)
	return nil
}

// StoreRegisters writes the registers of rb back with PTRACE_SETREGS.
func (dbp *Process) StoreRegisters(rb target.RegisterBuffer, regnum int) error {
	a := rb.Arch()
	regs, err := dbp.getRegs(rb.Ptid())
	if err != nil {
		return err
	}
	buf := make([]byte, 8)
	for i := 0; i < a.NumRegs(); i++ {
		if (regnum >= 0 && i != regnum) || rb.RegisterStatus(i) != gdbarch.RegValid {
			continue
		}
		field := ptraceRegField(regs, a.RegisterName(i))
		size := regcache.RegisterSize(a, i)
		if field == nil || size > len(buf) {
			if regnum >= 0 {
				return fmt.Errorf("%s: register %s can not be written", dbp, a.RegisterName(i))
			}
			continue
		}
		binary.LittleEndian.PutUint64(buf, *field)
		rb.RawCollect(i, buf[:size])
		*field = binary.LittleEndian.Uint64(buf)
	}
	dbp.execPtraceFunc(func() { err = sys.PtraceSetRegs(tid(rb.Ptid()), regs) })
	return err
}
