// Package naics describes the NAICS sector codes carried by disclosure
// extracts. Extracts use two-digit sectors and hyphenated sector ranges
// such as "31-33".
package naics

import (
	"strings"
	"unicode"
)

// sectorTitles maps 2-digit NAICS sectors to their 2022 titles.
var sectorTitles = map[string]string{
	"11": "Agriculture, Forestry, Fishing and Hunting",
	"21": "Mining, Quarrying, and Oil and Gas Extraction",
	"22": "Utilities",
	"23": "Construction",
	"31": "Manufacturing",
	"32": "Manufacturing",
	"33": "Manufacturing",
	"42": "Wholesale Trade",
	"44": "Retail Trade",
	"45": "Retail Trade",
	"48": "Transportation and Warehousing",
	"49": "Transportation and Warehousing",
	"51": "Information",
	"52": "Finance and Insurance",
	"53": "Real Estate and Rental and Leasing",
	"54": "Professional, Scientific, and Technical Services",
	"55": "Management of Companies and Enterprises",
	"56": "Administrative and Support and Waste Management",
	"61": "Educational Services",
	"62": "Health Care and Social Assistance",
	"71": "Arts, Entertainment, and Recreation",
	"72": "Accommodation and Food Services",
	"81": "Other Services (except Public Administration)",
	"92": "Public Administration",
}

// Sectors splits a code into its 2-digit sectors: "54" → [54],
// "31-33" → [31 32 33]. Malformed codes return nil.
func Sectors(code string) []string {
	code = strings.TrimSpace(code)
	lo, hi, isRange := strings.Cut(code, "-")
	if !isTwoDigits(lo) {
		return nil
	}
	if !isRange {
		return []string{lo}
	}
	if !isTwoDigits(hi) || hi < lo {
		return nil
	}
	var out []string
	for n := atoi2(lo); n <= atoi2(hi); n++ {
		out = append(out, string([]byte{byte('0' + n/10), byte('0' + n%10)}))
	}
	return out
}

// IsValid reports whether every sector in code is a real NAICS sector.
func IsValid(code string) bool {
	sectors := Sectors(code)
	if len(sectors) == 0 {
		return false
	}
	for _, s := range sectors {
		if _, ok := sectorTitles[s]; !ok {
			return false
		}
	}
	return true
}

// Title returns the sector title for code, or "" when unknown. A range
// whose sectors share one title ("31-33") returns that title.
func Title(code string) string {
	if !IsValid(code) {
		return ""
	}
	sectors := Sectors(code)
	title := sectorTitles[sectors[0]]
	for _, s := range sectors[1:] {
		if sectorTitles[s] != title {
			return ""
		}
	}
	return title
}

// Describe formats code with its title for reports: "54 - Professional,
// Scientific, and Technical Services". Unknown codes are returned as is.
func Describe(code string) string {
	if t := Title(code); t != "" {
		return code + " - " + t
	}
	return code
}

func isTwoDigits(s string) bool {
	return len(s) == 2 && unicode.IsDigit(rune(s[0])) && unicode.IsDigit(rune(s[1]))
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
