package fingerprint

import "strconv"

func formatInt(v int64) string   { return strconv.FormatInt(v, 10) }
func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
