// Package hostapitest provides an in-memory fake of the host thread table
// and event stream for tests, standing in for the real host the way a fake
// Redis/memcache client stands in for the teacher's Client interface in its
// own unit tests.
package hostapitest

import (
	"github.com/FedeDP/plugins/src/decoder"
	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/ppme"
)

// FDEntry is a fake hostapi.FDEntry.
type FDEntry struct {
	OpenFlagsV uint32
	NameV      string
	NameRawV   string
	OldNameV   string
	FlagsV     uint32
	DevV       uint32
	MountIDV   int64
	InoV       uint64
	PidV       int64
}

func (f FDEntry) OpenFlags() uint32 { return f.OpenFlagsV }
func (f FDEntry) Name() string      { return f.NameV }
func (f FDEntry) NameRaw() string   { return f.NameRawV }
func (f FDEntry) OldName() string   { return f.OldNameV }
func (f FDEntry) Flags() uint32     { return f.FlagsV }
func (f FDEntry) Dev() uint32       { return f.DevV }
func (f FDEntry) MountID() int64    { return f.MountIDV }
func (f FDEntry) Ino() uint64       { return f.InoV }
func (f FDEntry) Pid() int64        { return f.PidV }

// ThreadEntry is a fake, fully mutable hostapi.ThreadEntry.
type ThreadEntry struct {
	TidV           int64
	PidV           int64
	PtidV          int64
	SidV           int64
	VtidV          int64
	VpidV          int64
	VpgidV         int64
	TtyV           int64
	CommV          string
	ExeV           string
	ExePathV       string
	CwdV           string
	ContainerIDV   string
	ExeInoV        uint64
	ExeInoCtimeV   uint64
	ExeInoMtimeV   uint64
	ExeWritableV   bool
	ExeUpperLayerV bool
	ExeFromMemfdV  bool
	ArgsV          []string
	EnvV           []string
	FDs            map[int64]hostapi.FDEntry
	lastEventFD    int64
}

func NewThreadEntry(tid int64) *ThreadEntry {
	return &ThreadEntry{TidV: tid, FDs: make(map[int64]hostapi.FDEntry)}
}

func (t *ThreadEntry) Tid() int64             { return t.TidV }
func (t *ThreadEntry) Pid() int64             { return t.PidV }
func (t *ThreadEntry) Ptid() int64            { return t.PtidV }
func (t *ThreadEntry) Sid() int64             { return t.SidV }
func (t *ThreadEntry) Vtid() int64            { return t.VtidV }
func (t *ThreadEntry) Vpid() int64            { return t.VpidV }
func (t *ThreadEntry) Vpgid() int64           { return t.VpgidV }
func (t *ThreadEntry) Tty() int64             { return t.TtyV }
func (t *ThreadEntry) Comm() string           { return t.CommV }
func (t *ThreadEntry) Exe() string            { return t.ExeV }
func (t *ThreadEntry) ExePath() string        { return t.ExePathV }
func (t *ThreadEntry) Cwd() string            { return t.CwdV }
func (t *ThreadEntry) ContainerID() string    { return t.ContainerIDV }
func (t *ThreadEntry) ExeIno() uint64         { return t.ExeInoV }
func (t *ThreadEntry) ExeInoCtime() uint64    { return t.ExeInoCtimeV }
func (t *ThreadEntry) ExeInoMtime() uint64    { return t.ExeInoMtimeV }
func (t *ThreadEntry) ExeWritable() bool      { return t.ExeWritableV }
func (t *ThreadEntry) ExeUpperLayer() bool    { return t.ExeUpperLayerV }
func (t *ThreadEntry) ExeFromMemfd() bool     { return t.ExeFromMemfdV }
func (t *ThreadEntry) Args() []string         { return t.ArgsV }
func (t *ThreadEntry) Env() []string          { return t.EnvV }
func (t *ThreadEntry) LastEventFD() int64     { return t.lastEventFD }
func (t *ThreadEntry) SetLastEventFD(fd int64) { t.lastEventFD = fd }

func (t *ThreadEntry) FD(fd int64) (hostapi.FDEntry, bool) {
	e, ok := t.FDs[fd]
	return e, ok
}

// ThreadTable is a fake hostapi.ThreadTable backed by a plain map.
type ThreadTable struct {
	Threads map[int64]*ThreadEntry
}

func NewThreadTable() *ThreadTable {
	return &ThreadTable{Threads: make(map[int64]*ThreadEntry)}
}

func (tt *ThreadTable) Add(e *ThreadEntry) { tt.Threads[e.TidV] = e }

func (tt *ThreadTable) Lookup(tid int64) (hostapi.ThreadEntry, bool) {
	e, ok := tt.Threads[tid]
	if !ok {
		return nil, false
	}
	return e, true
}

// Event is a fake hostapi.Event.
type Event struct {
	TypeV Code
	TidV  int64
	Raw   []byte
	N     int
}

// Code is a type alias kept local to avoid importing ppme twice in callers
// that only need to build events.
type Code = ppme.Code

func (e Event) Type() Code              { return e.TypeV }
func (e Event) Tid() int64              { return e.TidV }
func (e Event) Buffer() decoder.Buffer  { return decoder.NewBuffer(e.Raw, e.N) }
