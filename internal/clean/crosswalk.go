package clean

import (
	"sort"
	"strconv"
	"strings"
)

// uhfToZIP3 maps each UHF42 neighborhood code to the three-digit ZIP
// prefix that covers it. The mapping is many-to-one: several UHF
// districts share a ZIP3.
var uhfToZIP3 = map[int]string{
	101: "104", 102: "104", 103: "104", 104: "104", 105: "104", 106: "104", 107: "104",
	201: "112", 202: "111", 203: "111", 204: "112", 205: "112", 206: "111", 207: "111",
	208: "112", 209: "111", 210: "111", 211: "112",
	301: "100", 302: "100", 303: "100", 304: "100", 305: "101", 306: "100", 307: "100",
	308: "100", 309: "100", 310: "102",
	401: "111", 402: "113", 403: "113", 404: "113", 405: "113", 406: "113", 407: "114",
	408: "114", 409: "110", 410: "116",
	501: "103", 502: "103", 503: "103", 504: "103",
}

// BoroughForUHF maps a UHF42 code to its borough name. Codes outside the
// published ranges return empty.
func BoroughForUHF(uhf int) string {
	switch {
	case uhf >= 101 && uhf <= 107:
		return "Bronx"
	case uhf >= 201 && uhf <= 211:
		return "Brooklyn"
	case uhf >= 301 && uhf <= 310:
		return "Manhattan"
	case uhf >= 401 && uhf <= 410:
		return "Queens"
	case uhf >= 501 && uhf <= 504:
		return "Staten Island"
	default:
		return ""
	}
}

// ZIP3ForUHF returns the ZIP3 prefix covering a UHF42 district, or empty
// for codes outside the crosswalk.
func ZIP3ForUHF(uhf int) string {
	return uhfToZIP3[uhf]
}

// UHFsForZIP3 returns the UHF42 codes covered by a ZIP3 prefix, sorted
// ascending. Unknown prefixes return nil.
func UHFsForZIP3(zip3 string) []int {
	zip3 = strings.TrimSpace(zip3)
	var codes []int
	for uhf, z := range uhfToZIP3 {
		if z == zip3 {
			codes = append(codes, uhf)
		}
	}
	sort.Ints(codes)
	return codes
}

// ParseUHF parses a UHF42 identifier that may carry decimal or space
// noise ("305", "305.0", " 305 "). Returns 0 when unparseable or outside
// the valid ranges.
func ParseUHF(s string) int {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if BoroughForUHF(n) == "" {
		return 0
	}
	return n
}

// NormalizeZIP3 trims a postal identifier to its three-digit prefix.
// Returns empty when the input has fewer than three leading digits.
func NormalizeZIP3(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return ""
	}
	s = s[:3]
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s
}
