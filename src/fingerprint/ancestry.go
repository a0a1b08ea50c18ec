package fingerprint

import (
	"strconv"
	"strings"

	"github.com/FedeDP/plugins/src/hostapi"
)

const (
	maxSidHops   = 9
	maxVpgidHops = 5
)

// ancestor walks up the ptid chain k times from self, stopping early (ok=false)
// if ptid==1 is reached before k hops complete. k=0 returns self.
func ancestor(tt hostapi.ThreadTable, self hostapi.ThreadEntry, k uint32) (hostapi.ThreadEntry, bool) {
	if k == 0 {
		return self, true
	}
	cur := self
	for i := uint32(0); i < k; i++ {
		if cur.Ptid() == 1 {
			return nil, false
		}
		parent, ok := tt.Lookup(cur.Ptid())
		if !ok {
			return nil, false
		}
		cur = parent
	}
	return cur, true
}

// lineageConcat concatenates value(self) with value(ancestor(i)) for
// i in [1, k], stopping at the first hop that cannot be resolved.
func lineageConcat(tt hostapi.ThreadTable, self hostapi.ThreadEntry, k uint32, value func(hostapi.ThreadEntry) string) string {
	var sb strings.Builder
	sb.WriteString(value(self))
	for i := uint32(1); i <= k; i++ {
		anc, ok := ancestor(tt, self, i)
		if !ok {
			break
		}
		sb.WriteString(value(anc))
	}
	return sb.String()
}

// leader walks ancestors while matchField(ancestor) == matchField(self),
// capped at maxHops, returning the furthest-up matching ancestor (or self
// if none match).
func leader(tt hostapi.ThreadTable, self hostapi.ThreadEntry, maxHops int, matchField func(hostapi.ThreadEntry) int64) hostapi.ThreadEntry {
	want := matchField(self)
	cur := self
	result := self
	for i := 0; i < maxHops; i++ {
		if cur.Ptid() == 1 {
			break
		}
		parent, ok := tt.Lookup(cur.Ptid())
		if !ok {
			break
		}
		if matchField(parent) != want {
			break
		}
		result = parent
		cur = parent
	}
	return result
}

func sidField(e hostapi.ThreadEntry) int64   { return e.Sid() }
func vpgidField(e hostapi.ThreadEntry) int64 { return e.Vpgid() }

func joinArgv(comm string, args []string) string {
	all := make([]string, 0, len(args)+1)
	all = append(all, comm)
	all = append(all, args...)
	return strings.Join(all, " ")
}

func cmdNArgs(args []string) string {
	return strconv.Itoa(len(args))
}

func cmdLenArgs(args []string) string {
	total := 0
	for _, a := range args {
		total += len(a)
	}
	return strconv.Itoa(total)
}

func envValue(entries []string, key string) string {
	if key == "" {
		return strings.Join(entries, " ")
	}
	prefix := key + "="
	for _, e := range entries {
		if strings.HasPrefix(e, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(e, prefix))
		}
	}
	return ""
}
