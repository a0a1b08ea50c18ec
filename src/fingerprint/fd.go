package fingerprint

import (
	"path"
	"strconv"
	"strings"

	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/ppme"
)

// atFDCWD mirrors the host's PPM_AT_FDCWD sentinel: a dirfd value meaning
// "resolve against the thread's cwd" rather than a real fd.
const atFDCWD = -100

// Raw parameter slot conventions for the fd-producing event family, used
// only on the fallback path when the thread's fd subtable doesn't already
// have the answer. openat-family events carry (fd, dirfd, name, ...); the
// rest carry (fd, name, ...); connect/accept carry no filesystem path at
// all (their "name" is a socket tuple the host populates into the fd
// subtable directly, not something this core re-derives from the raw
// buffer).
const (
	slotOpenName     = 1
	slotOpenatDirfd  = 1
	slotOpenatName   = 2
)

func hasRawPath(t ppme.Code) bool {
	switch t {
	case ppme.Open, ppme.Creat, ppme.Openat, ppme.Openat2, ppme.OpenByHandleAt:
		return true
	default:
		return false
	}
}

// rawFd decodes the fd produced by evt straight from its parameter buffer,
// used when there is no thread entry to read lastevent_fd from.
func rawFd(evt hostapi.Event) int64 {
	if !ppme.IsFdProducing(evt.Type()) {
		return 0
	}
	fd, err := evt.Buffer().ParamInt64(ppme.FdParamSlot(evt.Type()))
	if err != nil {
		return 0
	}
	return fd
}

// rawPath re-derives the fd's path directly from the raw event buffer,
// resolving a relative name against cwd (or against the dirfd entry for
// openat, with atFDCWD meaning cwd). self may be nil, in which case a
// relative name cannot be resolved and is returned unjoined.
func rawPath(self hostapi.ThreadEntry, evt hostapi.Event) string {
	if !hasRawPath(evt.Type()) {
		return ""
	}
	buf := evt.Buffer()

	var name string
	var base string

	switch evt.Type() {
	case ppme.Openat, ppme.Openat2, ppme.OpenByHandleAt:
		n, err := buf.ParamString(slotOpenatName)
		if err != nil {
			return ""
		}
		name = n
		if strings.HasPrefix(name, "/") {
			return path.Clean(name)
		}
		dirfd, err := buf.ParamInt64(slotOpenatDirfd)
		if err != nil {
			return normalize("", name)
		}
		if dirfd == atFDCWD || self == nil {
			if self != nil {
				base = self.Cwd()
			}
		} else if entry, ok := self.FD(dirfd); ok {
			base = entry.Name()
		}
	default: // Open, Creat
		n, err := buf.ParamString(slotOpenName)
		if err != nil {
			return ""
		}
		name = n
		if strings.HasPrefix(name, "/") {
			return path.Clean(name)
		}
		if self != nil {
			base = self.Cwd()
		}
	}
	return normalize(base, name)
}

// normalize joins a possibly-relative name onto base and collapses "." and
// ".." segments.
func normalize(base, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "/") {
		return path.Clean(name)
	}
	if base == "" {
		return path.Clean(name)
	}
	return path.Clean(path.Join(base, name))
}

// resolvedPath returns the fd's name, preferring the host thread table's
// cached copy and falling back to raw-buffer re-derivation when that is
// empty, per spec's "primary vs fallback resolution".
func resolvedPath(self hostapi.ThreadEntry, evt hostapi.Event, cache *PathCache, useRaw bool) string {
	tid, fd := evt.Tid(), rawFd(evt)
	if self != nil {
		tid = self.Tid()
		fd = self.LastEventFD()
		if entry, ok := self.FD(fd); ok {
			if n := fdValueOf(entry, useRaw); n != "" {
				return n
			}
		}
	}
	if cached, ok := cache.Get(tid, fd); ok {
		return cached
	}
	resolved := rawPath(self, evt)
	cache.Put(tid, fd, resolved)
	return resolved
}

func fdValueOf(e hostapi.FDEntry, raw bool) string {
	if raw {
		return e.NameRaw()
	}
	return e.Name()
}

func fdNum(self hostapi.ThreadEntry, evt hostapi.Event) string {
	if self != nil {
		return strconv.FormatInt(self.LastEventFD(), 10)
	}
	return strconv.FormatInt(rawFd(evt), 10)
}

func fdIno(self hostapi.ThreadEntry) string {
	if self == nil {
		return ""
	}
	if entry, ok := self.FD(self.LastEventFD()); ok {
		return strconv.FormatUint(entry.Ino(), 10)
	}
	return ""
}

func fdDev(self hostapi.ThreadEntry) string {
	if self == nil {
		return ""
	}
	if entry, ok := self.FD(self.LastEventFD()); ok {
		return strconv.FormatUint(uint64(entry.Dev()), 10)
	}
	return ""
}

// splitArrow splits an fd-name string of the form "left->right" (as used
// for pipes and sockets) and returns the requested side, or "" if the
// delimiter is absent.
func splitArrow(name string, left bool) string {
	i := strings.Index(name, "->")
	if i < 0 {
		return ""
	}
	if left {
		return name[:i]
	}
	return name[i+2:]
}

// splitDirectoryFilename splits a resolved path at its last '/'.
func splitDirectoryFilename(p string) (dir, file string) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}
