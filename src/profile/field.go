// Package profile parses behavior-profile strings (a space-separated list of
// %-prefixed field selectors, per the host plugin's fingerprint-profile
// configuration syntax) into a sequence of typed selectors the fingerprint
// extractor can evaluate.
package profile

import "fmt"

// FieldID enumerates every field selector this core recognizes.
type FieldID int

const (
	FieldUnknown FieldID = iota
	FieldContainerID
	FieldProcName
	FieldProcPName
	FieldProcAName // %proc.aname[k]
	FieldProcArgs
	FieldProcCmdNArgs
	FieldProcCmdLenArgs
	FieldProcCmdline
	FieldProcPCmdline
	FieldProcACmdline // %proc.acmdline[k]
	FieldProcExeline
	FieldProcExe
	FieldProcPExe
	FieldProcAExe // %proc.aexe[k]
	FieldProcExepath
	FieldProcPExepath
	FieldProcAExepath // %proc.aexepath[k]
	FieldProcCwd
	FieldProcTty
	FieldProcPid
	FieldProcPpid
	FieldProcAPid // %proc.apid[k]
	FieldProcVpid
	FieldProcPVpid
	FieldProcSid
	FieldProcSname
	FieldProcSidExe
	FieldProcSidExepath
	FieldProcVpgid
	FieldProcVpgidName
	FieldProcVpgidExe
	FieldProcVpgidExepath
	FieldProcEnv // %proc.env or %proc.env[KEY]
	FieldProcIsExeWritable
	FieldProcIsExeUpperLayer
	FieldProcIsExeFromMemfd
	FieldProcExeIno
	FieldProcExeInoCtime
	FieldProcExeInoMtime
	FieldProcIsSidLeader
	FieldProcIsVpgidLeader
	FieldFdNum
	FieldFdName
	FieldFdDirectory
	FieldFdFilename
	FieldFdIno
	FieldFdDev
	FieldFdNameRaw
	FieldCustomANameLineageConcat
	FieldCustomAExeLineageConcat
	FieldCustomAExepathLineageConcat
	FieldCustomFdNamePart1
	FieldCustomFdNamePart2
)

// fdDependent is the set of selectors whose value can only be computed
// against an fd-producing event (spec §4.5 "Fd-profile gating").
var fdDependent = map[FieldID]bool{
	FieldFdNum:                  true,
	FieldFdName:                 true,
	FieldFdDirectory:            true,
	FieldFdFilename:             true,
	FieldFdIno:                  true,
	FieldFdDev:                  true,
	FieldFdNameRaw:              true,
	FieldCustomFdNamePart1:      true,
	FieldCustomFdNamePart2:      true,
}

// IsFdDependent reports whether id may only be evaluated on an fd-producing
// event.
func IsFdDependent(id FieldID) bool {
	return fdDependent[id]
}

// ancestorIndexed is the set of selectors that accept an "[k]" index arg
// walking the thread's ancestor chain (k=0 meaning "self").
var ancestorIndexed = map[FieldID]bool{
	FieldProcAPid:                       true,
	FieldProcAName:                      true,
	FieldProcAExe:                       true,
	FieldProcAExepath:                   true,
	FieldProcACmdline:                   true,
	FieldCustomANameLineageConcat:       true,
	FieldCustomAExeLineageConcat:        true,
	FieldCustomAExepathLineageConcat:    true,
}

// IsAncestorIndexed reports whether id accepts a numeric ancestor-hop index.
func IsAncestorIndexed(id FieldID) bool {
	return ancestorIndexed[id]
}

// namedArg is the set of selectors that accept a "[KEY]" string arg.
var namedArg = map[FieldID]bool{
	FieldProcEnv: true,
}

// IsNamedArg reports whether id accepts a string-keyed arg (e.g. env var name).
func IsNamedArg(id FieldID) bool {
	return namedArg[id]
}

// registeredNames maps every recognized "%name" token (without the leading
// percent) to its FieldID. The parser looks names up by exact match after
// arg-bracket stripping, so names that are prefixes of others (proc.sid and
// proc.sid.exe, proc.exe and proc.exepath) never shadow one another.
var registeredNames = map[string]FieldID{
	"container.id":                        FieldContainerID,
	"proc.name":                           FieldProcName,
	"proc.pname":                          FieldProcPName,
	"proc.aname":                          FieldProcAName,
	"proc.args":                           FieldProcArgs,
	"proc.cmdnargs":                       FieldProcCmdNArgs,
	"proc.cmdlenargs":                     FieldProcCmdLenArgs,
	"proc.cmdline":                        FieldProcCmdline,
	"proc.pcmdline":                       FieldProcPCmdline,
	"proc.acmdline":                       FieldProcACmdline,
	"proc.exeline":                        FieldProcExeline,
	"proc.exe":                            FieldProcExe,
	"proc.pexe":                           FieldProcPExe,
	"proc.aexe":                           FieldProcAExe,
	"proc.exepath":                        FieldProcExepath,
	"proc.pexepath":                       FieldProcPExepath,
	"proc.aexepath":                       FieldProcAExepath,
	"proc.cwd":                            FieldProcCwd,
	"proc.tty":                            FieldProcTty,
	"proc.pid":                            FieldProcPid,
	"proc.ppid":                           FieldProcPpid,
	"proc.apid":                           FieldProcAPid,
	"proc.vpid":                           FieldProcVpid,
	"proc.pvpid":                          FieldProcPVpid,
	"proc.sid":                            FieldProcSid,
	"proc.sname":                          FieldProcSname,
	"proc.sid.exe":                        FieldProcSidExe,
	"proc.sid.exepath":                    FieldProcSidExepath,
	"proc.vpgid":                          FieldProcVpgid,
	"proc.vpgid.name":                     FieldProcVpgidName,
	"proc.vpgid.exe":                      FieldProcVpgidExe,
	"proc.vpgid.exepath":                  FieldProcVpgidExepath,
	"proc.env":                            FieldProcEnv,
	"proc.is_exe_writable":                FieldProcIsExeWritable,
	"proc.is_exe_upper_layer":             FieldProcIsExeUpperLayer,
	"proc.is_exe_from_memfd":              FieldProcIsExeFromMemfd,
	"proc.exe_ino":                        FieldProcExeIno,
	"proc.exe_ino.ctime":                  FieldProcExeInoCtime,
	"proc.exe_ino.mtime":                  FieldProcExeInoMtime,
	"proc.is_sid_leader":                  FieldProcIsSidLeader,
	"proc.is_vpgid_leader":                FieldProcIsVpgidLeader,
	"fd.num":                              FieldFdNum,
	"fd.name":                             FieldFdName,
	"fd.directory":                        FieldFdDirectory,
	"fd.filename":                         FieldFdFilename,
	"fd.ino":                              FieldFdIno,
	"fd.dev":                              FieldFdDev,
	"fd.nameraw":                          FieldFdNameRaw,
	"custom.aname_lineage_concat":         FieldCustomANameLineageConcat,
	"custom.aexe_lineage_concat":          FieldCustomAExeLineageConcat,
	"custom.aexepath_lineage_concat":      FieldCustomAExepathLineageConcat,
	"custom.fdname_part1":                 FieldCustomFdNamePart1,
	"custom.fdname_part2":                 FieldCustomFdNamePart2,
}

// names is the reverse of registeredNames, built once for String().
var names = func() map[FieldID]string {
	m := make(map[FieldID]string, len(registeredNames))
	for n, id := range registeredNames {
		m[id] = n
	}
	return m
}()

// Selector is a single parsed field reference: an enumerated FieldID plus an
// optional numeric index (ancestor hop count / argv index) or named arg
// (env var key).
type Selector struct {
	ID      FieldID
	Literal string  // set instead of ID when the token was a plain literal
	ArgID   *uint32 // set for "%name[k]" forms
	ArgName *string // set for "%name[KEY]" forms
}

// IsLiteral reports whether this selector is a pass-through literal token
// rather than a parsed "%"-selector.
func (s Selector) IsLiteral() bool {
	return s.ID == FieldUnknown && s.ArgID == nil && s.ArgName == nil
}

func (s Selector) String() string {
	if s.IsLiteral() {
		return s.Literal
	}
	name, ok := names[s.ID]
	if !ok {
		return fmt.Sprintf("%%<unknown:%d>", s.ID)
	}
	switch {
	case s.ArgID != nil:
		return fmt.Sprintf("%%%s[%d]", name, *s.ArgID)
	case s.ArgName != nil:
		return fmt.Sprintf("%%%s[%s]", name, *s.ArgName)
	default:
		return "%" + name
	}
}
