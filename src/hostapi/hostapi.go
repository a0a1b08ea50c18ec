// Package hostapi defines the interfaces this core consumes from the host
// observability framework: a thread/fd table keyed by tid, and the raw
// parsed event. These are the "external collaborators" spec.md §1 places
// out of scope; this package only names the shape the core needs from them,
// the way the teacher names Server as an interface in src/server/server.go
// rather than depending on one concrete implementation.
package hostapi

import (
	"github.com/FedeDP/plugins/src/decoder"
	"github.com/FedeDP/plugins/src/ppme"
)

// FDEntry is one row of a thread's file-descriptor subtable.
type FDEntry interface {
	OpenFlags() uint32
	Name() string
	NameRaw() string
	OldName() string
	Flags() uint32
	Dev() uint32
	MountID() int64
	Ino() uint64
	Pid() int64
}

// ThreadEntry is one row of the host's thread/process table, including the
// args/env/file_descriptors subtables and the plugin's own custom
// lastevent_fd field.
type ThreadEntry interface {
	Tid() int64
	Pid() int64
	Ptid() int64
	Sid() int64
	Vtid() int64
	Vpid() int64
	Vpgid() int64
	Tty() int64

	Comm() string
	Exe() string
	ExePath() string
	Cwd() string
	ContainerID() string

	ExeIno() uint64
	ExeInoCtime() uint64
	ExeInoMtime() uint64
	ExeWritable() bool
	ExeUpperLayer() bool
	ExeFromMemfd() bool

	Args() []string
	Env() []string

	FD(fd int64) (FDEntry, bool)

	LastEventFD() int64
	SetLastEventFD(fd int64)
}

// ThreadTable looks up thread entries by tid; callers walk the ptid parent
// chain through repeated Lookups. The host guarantees ptid==1 is the init
// process and the ultimate root of every chain.
type ThreadTable interface {
	Lookup(tid int64) (ThreadEntry, bool)
}

// Event is one parsed, host-delivered syscall event.
type Event interface {
	Type() ppme.Code
	Tid() int64
	Buffer() decoder.Buffer
}
