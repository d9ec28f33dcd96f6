package target

import "testing"

func TestPtidMatches(t *testing.T) {
	thread := Ptid{Pid: 10, Lwp: 11}
	other := Ptid{Pid: 10, Lwp: 12}
	for _, tc := range []struct {
		p, filter Ptid
		want      bool
	}{
		{thread, MinusOne, true},
		{thread, PidPtid(10), true},
		{thread, PidPtid(20), false},
		{thread, thread, true},
		{thread, other, false},
		{PidPtid(10), PidPtid(10), true},
	} {
		if got := tc.p.Matches(tc.filter); got != tc.want {
			t.Errorf("%v.Matches(%v) = %v", tc.p, tc.filter, got)
		}
	}
	if MinusOne.IsPid() || Null.IsPid() || thread.IsPid() || !PidPtid(3).IsPid() {
		t.Errorf("IsPid")
	}
}

func TestParsePtid(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Ptid
	}{
		{"42", PidPtid(42)},
		{"42.43", Ptid{Pid: 42, Lwp: 43}},
		{"42.43.44", Ptid{Pid: 42, Lwp: 43, Tid: 44}},
		{"minus_one_ptid", MinusOne},
		{"null_ptid", Null},
	} {
		got, err := ParsePtid(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParsePtid(%q) = %v, %v", tc.in, got, err)
		}
		if err == nil && tc.in != "42" && tc.in != "42.43" && got.String() != tc.in {
			t.Errorf("String() = %q expected %q", got.String(), tc.in)
		}
	}
	for _, in := range []string{"", "a", "1.b", "1.2.c", "1.2.3.4"} {
		if _, err := ParsePtid(in); err == nil {
			t.Errorf("ParsePtid(%q) succeeded", in)
		}
	}
}
