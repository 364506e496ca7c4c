package version

import (
	"strconv"
	"strings"
)

// triple is a parsed numeric version. Missing and non-numeric components are
// zero, so "1.0", "1.0.0" and "1.0.x" all compare equal.
type triple [3]uint64

// parseTriple parses a version string leniently into its numeric components.
// Leading "v" prefixes are tolerated; anything that does not parse as a
// number counts as zero. This matches the comparison contract of the tag
// series, which must order arbitrary strings without failing.
func parseTriple(v string) triple {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")

	var t triple
	parts := strings.SplitN(v, ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 64)
		if err != nil {
			continue
		}
		t[i] = n
	}
	return t
}

// Compare orders two version strings as numeric 3-tuples.
// It returns -1 when a < b, 0 when equal, and 1 when a > b. Missing trailing
// components are implicitly zero ("1.0" equals "1.0.0"), and the result is
// antisymmetric under argument swap.
func Compare(a, b string) int {
	ta, tb := parseTriple(a), parseTriple(b)
	for i := 0; i < 3; i++ {
		switch {
		case ta[i] < tb[i]:
			return -1
		case ta[i] > tb[i]:
			return 1
		}
	}
	return 0
}

// Canonical normalizes a version string to its numeric "major.minor.patch"
// form under the same lenient parsing rules as Compare.
func Canonical(v string) string {
	t := parseTriple(v)
	return strconv.FormatUint(t[0], 10) + "." + strconv.FormatUint(t[1], 10) + "." + strconv.FormatUint(t[2], 10)
}
