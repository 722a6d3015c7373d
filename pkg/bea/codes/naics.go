package codes

import (
	"strconv"
	"strings"
)

// NAICSSector is a two-digit NAICS sector ("category" in BEA industry breakdowns).
type NAICSSector string

// NAICSSubsector is a three-digit NAICS subsector.
type NAICSSubsector string

// NAICSIndustry is a four-digit NAICS industry group.
type NAICSIndustry string

var (
	NAICSSectors    = mustLoad[NAICSSector]("naics_sector.yaml")
	NAICSSubsectors = mustLoad[NAICSSubsector]("naics_subsector.yaml")
	NAICSIndustries = mustLoad[NAICSIndustry]("naics_industry.yaml")
)

// Description returns the official title.
func (s NAICSSector) Description() string { return NAICSSectors.Description(s) }

// Code returns the numeric NAICS code, or 0 for a symbol outside the table.
func (s NAICSSector) Code() int { return atoiOrZero(NAICSSectors.Code(s)) }

func (s NAICSSubsector) Description() string { return NAICSSubsectors.Description(s) }
func (s NAICSSubsector) Code() int           { return atoiOrZero(NAICSSubsectors.Code(s)) }

// Sector returns the parent sector, following the 31-33, 44-45 and 48-49 ranges.
func (s NAICSSubsector) Sector() (NAICSSector, bool) {
	return NAICSSectorFromCode(prefix(NAICSSubsectors.Code(s), 2))
}

func (i NAICSIndustry) Description() string { return NAICSIndustries.Description(i) }
func (i NAICSIndustry) Code() int           { return atoiOrZero(NAICSIndustries.Code(i)) }

// Subsector returns the parent subsector.
func (i NAICSIndustry) Subsector() (NAICSSubsector, bool) {
	return NAICSSubsectorFromCode(prefix(NAICSIndustries.Code(i), 3))
}

// NAICSSectorFromCode resolves a sector code such as "52" or "31-33".
// Non-numeric input is reported as no match.
func NAICSSectorFromCode(code string) (NAICSSector, bool) {
	return naicsFromCode(NAICSSectors, code)
}

// NAICSSubsectorFromCode resolves a three-digit subsector code.
func NAICSSubsectorFromCode(code string) (NAICSSubsector, bool) {
	return naicsFromCode(NAICSSubsectors, code)
}

// NAICSIndustryFromCode resolves a four-digit industry group code.
func NAICSIndustryFromCode(code string) (NAICSIndustry, bool) {
	return naicsFromCode(NAICSIndustries, code)
}

func naicsFromCode[S ~string](t *Table[S], code string) (S, bool) {
	code = strings.TrimSpace(code)
	if s, ok := t.FromCode(code); ok {
		return s, true
	}
	if !allDigits(code) {
		return "", false
	}
	// "052" and "52" name the same code.
	trimmed := strings.TrimLeft(code, "0")
	if trimmed == "" || trimmed == code {
		return "", false
	}
	return t.FromCode(trimmed)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func prefix(s string, n int) string {
	if len(s) < n {
		return ""
	}
	return s[:n]
}
