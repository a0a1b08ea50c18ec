// Package ppme names the host capture layer's event-type code space (PPME in
// the host framework's own vocabulary) to the extent the sketch core needs
// it: which codes produce a file descriptor, in which parameter slot, and
// which codes any behavior profile may legally target.
package ppme

// Code is a PPME event type code, as delivered by the host on every parsed
// event. The numeric values below are illustrative placeholders for the
// small slice of event types this core cares about; the host is the source
// of truth for the full code space.
type Code int

const (
	Open           Code = 1
	Openat         Code = 2
	Openat2        Code = 3
	OpenByHandleAt Code = 4
	Creat          Code = 5
	Accept         Code = 6
	Accept4        Code = 7
	Connect        Code = 8
	Execve         Code = 9
	Execveat       Code = 10
	Clone          Code = 11
	Clone3         Code = 12
)

// fdProducing is the set of event types whose successful return carries a
// new file descriptor integer.
var fdProducing = map[Code]struct{}{
	Open:           {},
	Openat:         {},
	Openat2:        {},
	OpenByHandleAt: {},
	Creat:          {},
	Accept:         {},
	Accept4:        {},
	Connect:        {},
}

// IsFdProducing reports whether c is in the fd-producing event set.
func IsFdProducing(c Code) bool {
	_, ok := fdProducing[c]
	return ok
}

// FdParamSlot returns the zero-based parameter slot holding the produced fd
// for an fd-producing event type. Connect carries its fd in slot 2; every
// other fd-producing type uses slot 0. Callers must check IsFdProducing
// first; FdParamSlot returns 0 for non-fd-producing codes.
func FdParamSlot(c Code) int {
	if c == Connect {
		return 2
	}
	return 0
}

// anyProfileSupported is the fd-producing set plus the process-lifecycle
// events every behavior profile, fd-dependent or not, may target.
var anyProfileSupported = func() map[Code]struct{} {
	m := map[Code]struct{}{
		Execve:   {},
		Execveat: {},
		Clone:    {},
		Clone3:   {},
	}
	for c := range fdProducing {
		m[c] = struct{}{}
	}
	return m
}()

// IsAnyProfileSupported reports whether a behavior profile (fd-dependent or
// not) may legally list c in its event_codes.
func IsAnyProfileSupported(c Code) bool {
	_, ok := anyProfileSupported[c]
	return ok
}
