package apperr

import "testing"

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{&ConfigRejected{Field: "sources", Reason: "empty"}, 2},
		{&Unavailable{Resource: "device:123"}, 3},
		{&IOFailure{Sink: "dest1"}, 4},
		{&StreamFault{Source: "system:default"}, 5},
		{&Internal{Invariant: "isValid"}, 5},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.want {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
