package posting

import (
	"strings"

	"github.com/danbim/application-tracker/internal/domain"
)

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func normalizeLocation(loc string) string {
	loc = cleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = cleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// locationFromLabeledText returns the text after a "Location:" style label.
func locationFromLabeledText(s string) string {
	low := strings.ToLower(s)
	for _, lab := range []string{"job location:", "locations:", "location:"} {
		i := strings.Index(low, lab)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(s[i+len(lab):])
		for _, cut := range []string{"\n", "\r", " | ", " · "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}
		rest = cleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}

func inferWorkLocation(location, title, desc string) domain.WorkLocation {
	blob := strings.ToLower(strings.Join([]string{location, title, desc}, " "))

	switch {
	case strings.Contains(blob, "remote"):
		return domain.WorkRemote
	case strings.Contains(blob, "hybrid"):
		return domain.WorkHybrid
	case strings.Contains(blob, "on-site") || strings.Contains(blob, "onsite") || strings.Contains(blob, "on site"):
		return domain.WorkOffice
	default:
		return ""
	}
}

// countryNames maps common country spellings to ISO alpha-2 codes.
var countryNames = map[string]string{
	"germany": "DE", "deutschland": "DE",
	"united kingdom": "GB", "uk": "GB", "england": "GB",
	"netherlands": "NL", "france": "FR", "switzerland": "CH",
	"austria": "AT", "belgium": "BE", "spain": "ES", "italy": "IT",
	"poland": "PL", "sweden": "SE", "denmark": "DK", "norway": "NO",
	"finland": "FI", "ireland": "IE", "portugal": "PT",
	"united states": "US", "usa": "US", "canada": "CA",
}

// guessCountry looks at the last comma-separated part of a location. Bare
// two-letter suffixes are not trusted; they are usually states ("Austin, TX").
func guessCountry(location string) string {
	parts := strings.Split(location, ",")
	last := strings.ToLower(cleanText(parts[len(parts)-1]))
	if code, ok := countryNames[last]; ok {
		return code
	}
	return ""
}
