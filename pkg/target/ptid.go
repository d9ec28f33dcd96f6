package target

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoRegisters is returned when writing registers of a target that has
// none.
var ErrNoRegisters = errors.New("no registers")

// Ptid identifies a thread: the process it belongs to, its LWP and its
// thread id. A Ptid with only Pid set refers to a whole process.
type Ptid struct {
	Pid int
	Lwp int64
	Tid uint64
}

var (
	// Null is the Ptid of no thread.
	Null = Ptid{}
	// MinusOne matches every thread of every process.
	MinusOne = Ptid{Pid: -1}
)

// PidPtid returns the ptid of process pid.
func PidPtid(pid int) Ptid {
	return Ptid{Pid: pid}
}

// IsPid reports whether p refers to a whole process.
func (p Ptid) IsPid() bool {
	return p != MinusOne && p != Null && p.Lwp == 0 && p.Tid == 0
}

// Matches reports whether p belongs to the set of threads described by
// filter: MinusOne matches everything, a process ptid matches its threads,
// any other ptid matches itself.
func (p Ptid) Matches(filter Ptid) bool {
	switch {
	case filter == MinusOne:
		return true
	case filter.IsPid():
		return p.Pid == filter.Pid
	}
	return p == filter
}

func (p Ptid) String() string {
	switch p {
	case Null:
		return "null_ptid"
	case MinusOne:
		return "minus_one_ptid"
	}
	return fmt.Sprintf("%d.%d.%d", p.Pid, p.Lwp, p.Tid)
}

// ParsePtid parses ptids in the format returned by String, "pid" and
// "pid.lwp" are also accepted.
func ParsePtid(s string) (Ptid, error) {
	switch s {
	case "null_ptid":
		return Null, nil
	case "minus_one_ptid", "-1":
		return MinusOne, nil
	}
	fields := strings.Split(s, ".")
	if len(fields) > 3 {
		return Null, fmt.Errorf("malformed ptid %q", s)
	}
	var p Ptid
	var err error
	if p.Pid, err = strconv.Atoi(fields[0]); err != nil {
		return Null, fmt.Errorf("malformed ptid %q: %v", s, err)
	}
	if len(fields) > 1 {
		if p.Lwp, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
			return Null, fmt.Errorf("malformed ptid %q: %v", s, err)
		}
	}
	if len(fields) > 2 {
		if p.Tid, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
			return Null, fmt.Errorf("malformed ptid %q: %v", s, err)
		}
	}
	return p, nil
}
