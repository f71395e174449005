// Package posting turns a job posting page into a draft JobOpening so the
// user does not have to retype title, company and location.
package posting

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/danbim/application-tracker/internal/domain"
)

// jsonLDPosting is the subset of schema.org/JobPosting we read.
type jsonLDPosting struct {
	Type               any    `json:"@type"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	DatePosted         string `json:"datePosted"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	JobLocationType string `json:"jobLocationType"`
	JobLocation     any    `json:"jobLocation"`
}

func (p jsonLDPosting) isJobPosting() bool {
	switch t := p.Type.(type) {
	case string:
		return t == "JobPosting"
	case []any:
		for _, v := range t {
			if s, _ := v.(string); s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func (p jsonLDPosting) location() string {
	var places []any
	switch v := p.JobLocation.(type) {
	case map[string]any:
		places = []any{v}
	case []any:
		places = v
	}
	for _, pl := range places {
		m, _ := pl.(map[string]any)
		addr, _ := m["address"].(map[string]any)
		var parts []string
		for _, k := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			switch v := addr[k].(type) {
			case string:
				parts = append(parts, v)
			case map[string]any:
				if n, _ := v["name"].(string); n != "" {
					parts = append(parts, n)
				}
			}
		}
		if loc := normalizeLocation(strings.Join(parts, ", ")); loc != "" {
			return loc
		}
	}
	return ""
}

func findJSONLD(doc *goquery.Document) (jsonLDPosting, bool) {
	var found jsonLDPosting
	ok := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := []byte(strings.TrimSpace(s.Text()))
		var one jsonLDPosting
		if json.Unmarshal(raw, &one) == nil && one.isJobPosting() {
			found, ok = one, true
			return false
		}
		var many []jsonLDPosting
		if json.Unmarshal(raw, &many) == nil {
			for _, p := range many {
				if p.isJobPosting() {
					found, ok = p, true
					return false
				}
			}
		}
		return true
	})
	return found, ok
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return cleanText(v)
}

func findLocation(doc *goquery.Document) string {
	candidates := []string{
		".location",
		".opening .location",
		".job__location",
		".posting-categories .location",
		"[data-testid='job-location']",
		"[data-testid='location']",
	}
	for _, sel := range candidates {
		if t := cleanText(doc.Find(sel).First().Text()); t != "" {
			return normalizeLocation(t)
		}
	}
	if loc := locationFromLabeledText(metaContent(doc, `meta[property="og:description"]`)); loc != "" {
		return normalizeLocation(loc)
	}
	if loc := locationFromLabeledText(doc.Find("body").Text()); loc != "" {
		return normalizeLocation(loc)
	}
	return ""
}

// htmlToText flattens an HTML fragment to readable text.
func htmlToText(fragment string) string {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return cleanText(fragment)
	}
	var lines []string
	d.Find("p, li, h1, h2, h3, h4").Each(func(_ int, s *goquery.Selection) {
		if t := cleanText(s.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	if len(lines) == 0 {
		return cleanText(d.Text())
	}
	return strings.Join(lines, "\n")
}

// Extract reads a posting page. Fields it cannot find stay empty; ratings
// are never guessed.
func Extract(doc *goquery.Document, pageURL string) domain.JobOpening {
	j := domain.JobOpening{PostingURL: pageURL, Status: domain.StatusNotApplied}

	ld, hasLD := findJSONLD(doc)
	if hasLD {
		j.Title = cleanText(ld.Title)
		j.Company = cleanText(ld.HiringOrganization.Name)
		j.JobLocation = ld.location()
		j.Description = htmlToText(ld.Description)
		if t, err := time.Parse(time.DateOnly, firstN(ld.DatePosted, 10)); err == nil {
			j.DateOpened = t.Format(time.DateOnly)
		}
		if strings.EqualFold(ld.JobLocationType, "TELECOMMUTE") {
			j.WorkLocation = domain.WorkRemote
		}
	}

	if j.Title == "" {
		j.Title = metaContent(doc, `meta[property="og:title"]`)
	}
	if j.Title == "" {
		j.Title = cleanText(doc.Find("h1").First().Text())
	}
	if j.Title == "" {
		j.Title = cleanText(doc.Find("title").First().Text())
	}
	if j.Company == "" {
		j.Company = metaContent(doc, `meta[property="og:site_name"]`)
	}
	if j.Company == "" {
		j.Company = companyFromURL(pageURL)
	}
	if j.JobLocation == "" {
		j.JobLocation = findLocation(doc)
	}
	if j.Description == "" {
		for _, sel := range []string{"#content", ".job-description", ".posting-page .content", "main"} {
			if h, err := doc.Find(sel).First().Html(); err == nil && strings.TrimSpace(h) != "" {
				j.Description = htmlToText(h)
				break
			}
		}
	}
	if j.Description == "" {
		j.Description = metaContent(doc, `meta[name="description"]`)
	}

	if j.WorkLocation == "" {
		j.WorkLocation = inferWorkLocation(j.JobLocation, j.Title, "")
	}
	j.Country = guessCountry(j.JobLocation)
	return j
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
