// Package fingerprint implements the behavior-fingerprint extractor: given
// an event, its originating thread's table entry (if any), and a parsed
// behavior profile, it produces the single concatenated string the sketch
// bank uses as a Count-Min Sketch key.
package fingerprint

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/FedeDP/plugins/src/hostapi"
	"github.com/FedeDP/plugins/src/ppme"
	"github.com/FedeDP/plugins/src/profile"
)

// Extract evaluates profile against evt, consulting tt for thread-table
// data and falling back to raw event-buffer decoding when the thread is
// absent from the table or a cached fd value is empty. cache may be nil.
//
// The return value is always (true, fp); an empty fp signals "not
// applicable" to the caller (dispatch skips the sketch update, extract
// returns a zero estimate).
//
// Fd-gating is deliberately brittle, matching the source this core is
// modeled on: an fd-dependent selector applied to a non-fd-producing event
// wipes the ENTIRE accumulated output, even contributions already made by
// earlier non-fd selectors in the same profile. This is preserved exactly;
// see DESIGN.md for why it is kept despite being surprising.
func Extract(evt hostapi.Event, tt hostapi.ThreadTable, sels []profile.Selector, cache *PathCache) (bool, string) {
	self, found := tt.Lookup(evt.Tid())
	var selfEntry hostapi.ThreadEntry
	if found {
		selfEntry = self
	}

	var out string
	for _, sel := range sels {
		if sel.IsLiteral() {
			out += sel.Literal
			continue
		}

		fdDep := profile.IsFdDependent(sel.ID)
		if fdDep && !ppme.IsFdProducing(evt.Type()) {
			out = ""
			continue
		}

		if selfEntry == nil && !fdDep {
			continue // fallback path: non-fd selectors contribute empty string
		}

		out += safeValue(evt, tt, selfEntry, sel, cache)
	}
	return true, out
}

// safeValue wraps value with a recover, matching the source's per-field
// exception containment: any panic while reading a host-provided field
// degrades to an empty contribution instead of aborting the whole extract.
func safeValue(evt hostapi.Event, tt hostapi.ThreadTable, self hostapi.ThreadEntry, sel profile.Selector, cache *PathCache) (v string) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("anomaly plugin: field %s raised %v, contributing empty string", sel, r)
			v = ""
		}
	}()
	return value(evt, tt, self, sel, cache)
}

func argID(sel profile.Selector) uint32 {
	if sel.ArgID == nil {
		return 0
	}
	return *sel.ArgID
}

func value(evt hostapi.Event, tt hostapi.ThreadTable, self hostapi.ThreadEntry, sel profile.Selector, cache *PathCache) string {
	switch sel.ID {
	// --- fd-dependent selectors ---
	case profile.FieldFdNum:
		return fdNum(self, evt)
	case profile.FieldFdName:
		return resolvedPath(self, evt, cache, false)
	case profile.FieldFdNameRaw:
		return resolvedPath(self, evt, cache, true)
	case profile.FieldFdDirectory:
		dir, _ := splitDirectoryFilename(resolvedPath(self, evt, cache, false))
		return dir
	case profile.FieldFdFilename:
		_, file := splitDirectoryFilename(resolvedPath(self, evt, cache, false))
		return file
	case profile.FieldFdIno:
		return fdIno(self)
	case profile.FieldFdDev:
		return fdDev(self)
	case profile.FieldCustomFdNamePart1:
		return splitArrow(resolvedPath(self, evt, cache, false), true)
	case profile.FieldCustomFdNamePart2:
		return splitArrow(resolvedPath(self, evt, cache, false), false)
	}

	// Everything below requires a thread entry; Extract already filtered
	// out the self==nil, non-fd case, so self is non-nil here.
	return threadValue(tt, self, sel)
}

func threadValue(tt hostapi.ThreadTable, self hostapi.ThreadEntry, sel profile.Selector) string {
	switch sel.ID {
	case profile.FieldContainerID:
		return self.ContainerID()
	case profile.FieldProcName:
		return self.Comm()
	case profile.FieldProcPName:
		return withAncestor(tt, self, 1, func(e hostapi.ThreadEntry) string { return e.Comm() })
	case profile.FieldProcAName:
		return withAncestor(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return e.Comm() })
	case profile.FieldProcArgs:
		return strings.Join(self.Args(), " ")
	case profile.FieldProcCmdNArgs:
		return cmdNArgs(self.Args())
	case profile.FieldProcCmdLenArgs:
		return cmdLenArgs(self.Args())
	case profile.FieldProcCmdline:
		return joinArgv(self.Comm(), self.Args())
	case profile.FieldProcPCmdline:
		return withAncestor(tt, self, 1, func(e hostapi.ThreadEntry) string { return joinArgv(e.Comm(), e.Args()) })
	case profile.FieldProcACmdline:
		return withAncestor(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return joinArgv(e.Comm(), e.Args()) })
	case profile.FieldProcExeline:
		return joinArgv(self.Exe(), self.Args())
	case profile.FieldProcExe:
		return self.Exe()
	case profile.FieldProcPExe:
		return withAncestor(tt, self, 1, func(e hostapi.ThreadEntry) string { return e.Exe() })
	case profile.FieldProcAExe:
		return withAncestor(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return e.Exe() })
	case profile.FieldProcExepath:
		return self.ExePath()
	case profile.FieldProcPExepath:
		return withAncestor(tt, self, 1, func(e hostapi.ThreadEntry) string { return e.ExePath() })
	case profile.FieldProcAExepath:
		return withAncestor(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return e.ExePath() })
	case profile.FieldProcCwd:
		return self.Cwd()
	case profile.FieldProcTty:
		return formatInt(self.Tty())
	case profile.FieldProcPid:
		return formatInt(self.Pid())
	case profile.FieldProcPpid:
		return withAncestor(tt, self, 1, func(e hostapi.ThreadEntry) string { return formatInt(e.Pid()) })
	case profile.FieldProcAPid:
		return withAncestor(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return formatInt(e.Pid()) })
	case profile.FieldProcVpid:
		return formatInt(self.Vpid())
	case profile.FieldProcPVpid:
		return withAncestor(tt, self, 1, func(e hostapi.ThreadEntry) string { return formatInt(e.Vpid()) })
	case profile.FieldProcSid:
		return formatInt(self.Sid())
	case profile.FieldProcSname:
		return leader(tt, self, maxSidHops, sidField).Comm()
	case profile.FieldProcSidExe:
		return leader(tt, self, maxSidHops, sidField).Exe()
	case profile.FieldProcSidExepath:
		return leader(tt, self, maxSidHops, sidField).ExePath()
	case profile.FieldProcVpgid:
		return formatInt(self.Vpgid())
	case profile.FieldProcVpgidName:
		return leader(tt, self, maxVpgidHops, vpgidField).Comm()
	case profile.FieldProcVpgidExe:
		return leader(tt, self, maxVpgidHops, vpgidField).Exe()
	case profile.FieldProcVpgidExepath:
		return leader(tt, self, maxVpgidHops, vpgidField).ExePath()
	case profile.FieldProcEnv:
		key := ""
		if sel.ArgName != nil {
			key = *sel.ArgName
		}
		return envValue(self.Env(), key)
	case profile.FieldProcIsExeWritable:
		return formatBool(self.ExeWritable())
	case profile.FieldProcIsExeUpperLayer:
		return formatBool(self.ExeUpperLayer())
	case profile.FieldProcIsExeFromMemfd:
		return formatBool(self.ExeFromMemfd())
	case profile.FieldProcExeIno:
		return formatUint(self.ExeIno())
	case profile.FieldProcExeInoCtime:
		return formatUint(self.ExeInoCtime())
	case profile.FieldProcExeInoMtime:
		return formatUint(self.ExeInoMtime())
	case profile.FieldProcIsSidLeader:
		return formatBool(self.Sid() == self.Vpid())
	case profile.FieldProcIsVpgidLeader:
		return formatBool(self.Vpgid() == self.Vpid())
	case profile.FieldCustomANameLineageConcat:
		return lineageConcat(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return e.Comm() })
	case profile.FieldCustomAExeLineageConcat:
		return lineageConcat(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return e.Exe() })
	case profile.FieldCustomAExepathLineageConcat:
		return lineageConcat(tt, self, argID(sel), func(e hostapi.ThreadEntry) string { return e.ExePath() })
	default:
		return ""
	}
}

// withAncestor resolves the kth ancestor and applies f, returning "" if the
// walk stops early (ptid==1 reached, or the chain is broken).
func withAncestor(tt hostapi.ThreadTable, self hostapi.ThreadEntry, k uint32, f func(hostapi.ThreadEntry) string) string {
	anc, ok := ancestor(tt, self, k)
	if !ok {
		return ""
	}
	return f(anc)
}

