package match

import "regexp"

// conflictPair is one row of the opposite-meaning rule table. A pair
// triggers when one title matches x and the other matches y without also
// matching x (and symmetrically).
type conflictPair struct {
	x *regexp.Regexp
	y *regexp.Regexp
}

var semanticConflicts = []conflictPair{
	{regexp.MustCompile(`(?i)\bunder\b`), regexp.MustCompile(`(?i)\bover\b`)},
	{regexp.MustCompile(`(?i)\bbelow\b`), regexp.MustCompile(`(?i)\babove\b`)},
	{regexp.MustCompile(`(?i)\blose\b`), regexp.MustCompile(`(?i)\bwin\b`)},
	{regexp.MustCompile(`(?i)\bfall\b`), regexp.MustCompile(`(?i)\brise\b`)},
	{regexp.MustCompile(`(?i)\bdecline\b`), regexp.MustCompile(`(?i)\bincrease\b`)},
	{regexp.MustCompile(`(?i)\bdecrease\b`), regexp.MustCompile(`(?i)\bincrease\b`)},
	{regexp.MustCompile(`(?i)\brecession\b`), regexp.MustCompile(`(?i)\bexpansion\b`)},
	{regexp.MustCompile(`(?i)\bnegative\s+(?:\w+\s+)?growth\b`), regexp.MustCompile(`(?i)\bgrowth\b`)},
}

// semanticConflict reports whether the two titles name opposite outcomes of
// the same pair in the rule table.
func semanticConflict(titleA, titleB string) bool {
	for _, p := range semanticConflicts {
		aX, aY := p.x.MatchString(titleA), p.y.MatchString(titleA)
		bX, bY := p.x.MatchString(titleB), p.y.MatchString(titleB)
		if aX && bY && !bX {
			return true
		}
		if bX && aY && !aX {
			return true
		}
	}
	return false
}

// periodMarkers are explicit sub-period references. A title carrying one is
// at a finer granularity than one without.
var periodMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bq[1-4]\b`),
	regexp.MustCompile(`(?i)\bh[12]\b`),
	regexp.MustCompile(`(?i)\bfirst\s+half\b`),
	regexp.MustCompile(`(?i)\bsecond\s+half\b`),
	regexp.MustCompile(`(?i)\bfirst\s+quarter\b`),
	regexp.MustCompile(`(?i)\bsecond\s+quarter\b`),
	regexp.MustCompile(`(?i)\bthird\s+quarter\b`),
	regexp.MustCompile(`(?i)\bfourth\s+quarter\b`),
}

func hasPeriodMarker(title string) bool {
	for _, re := range periodMarkers {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}

// periodConflict reports a granularity mismatch: exactly one of the two
// titles scopes itself to a sub-period.
func periodConflict(titleA, titleB string) bool {
	return hasPeriodMarker(titleA) != hasPeriodMarker(titleB)
}
