package enum

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo is the process-enumerator snapshot shape of spec §6.
type ProcessInfo struct {
	PID            int32
	ExeName        string
	WindowTitle    string // always empty: window titles need a platform GUI API gopsutil does not expose
	HasActiveAudio bool
}

// ActiveAudioPredicate reports whether pid currently owns an open capture
// client in the caller's session — hasActiveAudio is derived from live
// session state, not OS process state, since gopsutil cannot see which
// processes are the target of a loopback capture.
type ActiveAudioPredicate func(pid int32) bool

// ProcessEnumerator lists running processes via gopsutil.
type ProcessEnumerator struct {
	activeAudio ActiveAudioPredicate
}

// NewProcessEnumerator returns a ProcessEnumerator. activeAudio may be nil,
// in which case HasActiveAudio is always false.
func NewProcessEnumerator(activeAudio ActiveAudioPredicate) *ProcessEnumerator {
	return &ProcessEnumerator{activeAudio: activeAudio}
}

// List returns a snapshot of every running process. This call is
// OS-API-bound and can be slow on systems with many processes — never
// invoke it from an audio callback.
func (e *ProcessEnumerator) List(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enum: list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		info := ProcessInfo{PID: p.Pid, ExeName: name}
		if e.activeAudio != nil {
			info.HasActiveAudio = e.activeAudio(p.Pid)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
