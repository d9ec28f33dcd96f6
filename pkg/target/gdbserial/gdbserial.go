// Package gdbserial implements a target backend that reads and writes
// registers through a stub speaking the GDB Remote Serial Protocol, such as
// gdbserver or lldb-server.
//
// The register layout of the stub is read from its target description
// (qXfer:features:read), the architecture built from that description
// numbers its raw registers the same way the stub does. Stubs that do not
// provide a description are assumed to use the register layout of the
// architecture selected for them.
//
// Details of the protocol:
//
//	https://sourceware.org/gdb/onlinedocs/gdb/Remote-Protocol.html
package gdbserial

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-delve/dbgcore/pkg/gdbarch"
	"github.com/go-delve/dbgcore/pkg/logflags"
	"github.com/go-delve/dbgcore/pkg/regcache"
	"github.com/go-delve/dbgcore/pkg/target"
	"github.com/go-delve/dbgcore/pkg/tdesc"
)

// remoteReg is the position of a raw register in the packets of the stub.
type remoteReg struct {
	regnum int // remote register number
	offset int // offset in the 'g' packet, in bytes
	size   int
}

// Target is a remote stub.
type Target struct {
	addr string
	conn *gdbConn
	desc *tdesc.Description
	pid  int // from the multiprocess thread ids

	// layouts maps the raw registers of an architecture to the stub's
	// registers, nil entries are registers the stub does not have.
	layouts map[*gdbarch.Gdbarch][]*remoteReg
	aspaces map[int]*target.AddressSpace

	gsize     int  // size of the last 'g' response in bytes, -1 before the first
	pcmdok    bool // the stub supports 'p'
	bigPcmdok bool // the stub supports 'P'
}

// Dial connects to the stub listening at addr.
func Dial(addr string, timeout time.Duration) (*Target, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	t, err := Connect(conn)
	if err != nil {
		return nil, err
	}
	t.addr = addr
	return t, nil
}

// Connect performs the handshake with the stub on conn and reads its
// target description. Conn is closed if the handshake fails.
func Connect(conn net.Conn) (*Target, error) {
	t := &Target{
		addr:      conn.RemoteAddr().String(),
		conn:      newConn(conn),
		layouts:   make(map[*gdbarch.Gdbarch][]*remoteReg),
		aspaces:   make(map[int]*target.AddressSpace),
		gsize:     -1,
		pcmdok:    true,
		bigPcmdok: true,
	}
	if err := t.conn.handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := t.readDescription(); err != nil {
		conn.Close()
		return nil, err
	}
	return t, nil
}

// readDescription reads target.xml from the stub, resolving includes with
// further qXfer requests.
func (t *Target) readDescription() error {
	buf, err := t.conn.readAnnex("target.xml")
	if err != nil {
		if isProtocolErrorUnsupported(err) {
			if logflags.Target() {
				logflags.TargetLogger().Debugf("%s: no target description", t.addr)
			}
			return nil
		}
		return err
	}
	t.desc, err = tdesc.Parse(buf, t.conn.readAnnex)
	return err
}

// Description returns the target description sent by the stub, or nil.
func (t *Target) Description() *tdesc.Description {
	return t.desc
}

// Pid returns the process id reported by the stub, 0 if unknown.
func (t *Target) Pid() int {
	return t.pid
}

func (t *Target) String() string {
	return "remote " + t.addr
}

// Threads returns the threads of the process being debugged.
func (t *Target) Threads() ([]target.Ptid, error) {
	ids, err := t.conn.queryThreads()
	if err != nil {
		return nil, err
	}
	ptids := make([]target.Ptid, 0, len(ids))
	for _, id := range ids {
		ptid, err := t.parseThreadID(id)
		if err != nil {
			return nil, err
		}
		if t.pid == 0 {
			t.pid = ptid.Pid
		}
		ptids = append(ptids, ptid)
	}
	return ptids, nil
}

// parseThreadID parses a thread id in the "pPID.TID" format of the
// multiprocess extensions or the plain "TID" format.
func (t *Target) parseThreadID(id string) (target.Ptid, error) {
	pid := t.pid
	tidstr := id
	if strings.HasPrefix(id, "p") {
		dot := strings.Index(id, ".")
		if dot < 0 {
			return target.Null, &GdbMalformedThreadIDError{id}
		}
		n, err := strconv.ParseInt(id[1:dot], 16, 64)
		if err != nil {
			return target.Null, &GdbMalformedThreadIDError{id}
		}
		pid = int(n)
		tidstr = id[dot+1:]
	}
	tid, err := strconv.ParseInt(tidstr, 16, 64)
	if err != nil {
		return target.Null, &GdbMalformedThreadIDError{id}
	}
	return target.Ptid{Pid: pid, Lwp: tid}, nil
}

func (t *Target) threadID(ptid target.Ptid) string {
	if t.conn.multiprocess {
		return fmt.Sprintf("p%x.%x", ptid.Pid, ptid.Lwp)
	}
	return strconv.FormatInt(ptid.Lwp, 16)
}

// ThreadAddressSpace returns the address space of the process ptid
// belongs to.
func (t *Target) ThreadAddressSpace(ptid target.Ptid) *target.AddressSpace {
	as := t.aspaces[ptid.Pid]
	if as == nil {
		as = &target.AddressSpace{Num: len(t.aspaces) + 1}
		t.aspaces[ptid.Pid] = as
	}
	return as
}

// layout returns the position of the raw registers of a in the stub's
// packets. Registers are matched by name against the target description,
// without a description the stub is assumed to send the registers of a in
// order.
func (t *Target) layout(a *gdbarch.Gdbarch) []*remoteReg {
	if l, ok := t.layouts[a]; ok {
		return l
	}
	l := make([]*remoteReg, a.NumRegs())
	if t.desc == nil {
		offset := 0
		for i := range l {
			size := regcache.RegisterSize(a, i)
			l[i] = &remoteReg{regnum: i, offset: offset, size: size}
			offset += size
		}
	} else {
		offsets := make(map[*tdesc.Reg]int)
		offset := 0
		for _, r := range t.desc.Registers() {
			offsets[r] = offset
			offset += r.Size()
		}
		for i := range l {
			r := t.desc.FindRegister(a.RegisterName(i))
			if r == nil {
				continue
			}
			if size := regcache.RegisterSize(a, i); size != r.Size() {
				if logflags.Target() {
					logflags.TargetLogger().Warnf("register %s is %d bytes on the stub and %d bytes on %s", r.Name, r.Size(), size, a)
				}
				continue
			}
			l[i] = &remoteReg{regnum: r.Regnum, offset: offsets[r], size: r.Size()}
		}
	}
	t.layouts[a] = l
	return l
}

// FetchRegisters reads all the registers with a 'g' packet. Registers
// that are not part of the 'g' response are read with a 'p' packet.
func (t *Target) FetchRegisters(rb target.RegisterBuffer, regnum int) error {
	if t.conn.conn == nil {
		return errors.New("remote connection closed")
	}
	l := t.layout(rb.Arch())
	tid := t.threadID(rb.Ptid())
	if regnum >= 0 && l[regnum] != nil && t.gsize >= 0 && l[regnum].offset+l[regnum].size > t.gsize {
		return t.fetchRegister(rb, l, tid, regnum)
	}

	resp, err := t.conn.readRegisters(tid)
	if err != nil {
		return err
	}
	t.gsize = len(resp) / 2
	for i, rr := range l {
		if rr == nil || rr.offset+rr.size > t.gsize {
			continue
		}
		buf := make([]byte, rr.size)
		ok, err := decodeRegister(resp[2*rr.offset:], buf)
		if err != nil {
			return err
		}
		if !ok {
			buf = nil
		}
		rb.RawSupply(i, buf)
	}

	if regnum < 0 || l[regnum] == nil || rb.RegisterStatus(regnum) != gdbarch.RegUnknown {
		return nil
	}
	return t.fetchRegister(rb, l, tid, regnum)
}

func (t *Target) fetchRegister(rb target.RegisterBuffer, l []*remoteReg, tid string, regnum int) error {
	if !t.pcmdok {
		return nil
	}
	buf := make([]byte, l[regnum].size)
	ok, err := t.conn.readRegister(tid, l[regnum].regnum, buf)
	if err != nil {
		if isProtocolErrorUnsupported(err) {
			t.pcmdok = false
			return nil
		}
		return err
	}
	if !ok {
		buf = nil
	}
	rb.RawSupply(regnum, buf)
	return nil
}

// StoreRegisters writes registers with 'P' packets, falling back to a 'G'
// packet if the stub does not support 'P'.
func (t *Target) StoreRegisters(rb target.RegisterBuffer, regnum int) error {
	if t.conn.conn == nil {
		return errors.New("remote connection closed")
	}
	l := t.layout(rb.Arch())
	tid := t.threadID(rb.Ptid())
	var regnums []int
	if regnum >= 0 {
		if l[regnum] == nil {
			return fmt.Errorf("register %s can not be written on %s", rb.Arch().RegisterName(regnum), t)
		}
		regnums = []int{regnum}
	} else {
		for i, rr := range l {
			if rr != nil && rb.RegisterStatus(i) == gdbarch.RegValid {
				regnums = append(regnums, i)
			}
		}
	}

	if t.bigPcmdok {
		for _, i := range regnums {
			buf := make([]byte, l[i].size)
			rb.RawCollect(i, buf)
			err := t.conn.writeRegister(tid, l[i].regnum, buf)
			if err == nil {
				continue
			}
			if !isProtocolErrorUnsupported(err) {
				return err
			}
			t.bigPcmdok = false
			break
		}
		if t.bigPcmdok {
			return nil
		}
	}
	return t.storeAll(rb, l, tid)
}

// storeAll writes every register the cache holds with a single 'G'
// packet, the values of the other registers are read back from the stub
// first.
func (t *Target) storeAll(rb target.RegisterBuffer, l []*remoteReg, tid string) error {
	resp, err := t.conn.readRegisters(tid)
	if err != nil {
		return err
	}
	data := make([]byte, len(resp)/2)
	for i := range data {
		n, err := strconv.ParseUint(string(resp[2*i:2*i+2]), 16, 8)
		if err == nil {
			data[i] = uint8(n)
		}
	}
	for i, rr := range l {
		if rr == nil || rr.offset+rr.size > len(data) || rb.RegisterStatus(i) != gdbarch.RegValid {
			continue
		}
		rb.RawCollect(i, data[rr.offset:rr.offset+rr.size])
	}
	return t.conn.writeRegisters(tid, data)
}

// PrepareToStore does nothing, registers are written through as soon as
// they are stored.
func (t *Target) PrepareToStore(rb target.RegisterBuffer) error {
	return nil
}

// Close detaches from the stub and closes the connection.
func (t *Target) Close() error {
	return t.conn.detach()
}
