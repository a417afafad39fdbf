package catalog

import "strings"

// Product codes are segmented as <line>_<kind>_<size>_<variant>, for
// example 101_LB_0360_01.
const codeSeparator = "_"

// Kind segments of the base-set families
const (
	KindTallBaseSet  = "LB"
	KindShortBaseSet = "SB"
)

// standingPoseLine is the code line of the standing-pose tall base set
const standingPoseLine = "101"

func segments(code string) []string {
	return strings.Split(code, codeSeparator)
}

// SizeWeight derives the per-unit size weight from the third code segment.
// Only its leading digits count; codes without the segment weigh 0.
func SizeWeight(code string) int64 {
	parts := segments(code)
	if len(parts) < 3 {
		return 0
	}

	var n int64
	for _, r := range strings.TrimSpace(parts[2]) {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// Kind returns the second code segment, or "" for unsegmented codes
func Kind(code string) string {
	parts := segments(code)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// IsBaseSet reports whether code belongs to any base-set family
func IsBaseSet(code string) bool {
	return strings.HasSuffix(Kind(code), "B")
}

// IsTallBaseSet reports whether code is a tall-style base set
func IsTallBaseSet(code string) bool {
	return Kind(code) == KindTallBaseSet
}

// IsShortBaseSet reports whether code is a short-style base set
func IsShortBaseSet(code string) bool {
	return Kind(code) == KindShortBaseSet
}

// IsStandingTallBaseSet reports whether code is the standing-pose variant of
// the tall-style base set
func IsStandingTallBaseSet(code string) bool {
	return IsTallBaseSet(code) && segments(code)[0] == standingPoseLine
}
