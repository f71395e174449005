package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Validation collects input problems found before a record is stored.
// Scoring never consults it.
type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var (
	countryRe  = regexp.MustCompile(`^[A-Z]{2}$`)
	currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)
)

// NormalizeJobOpening trims text fields and upper-cases codes.
func NormalizeJobOpening(j JobOpening) JobOpening {
	j.Title = strings.TrimSpace(j.Title)
	j.Company = strings.TrimSpace(j.Company)
	j.Description = strings.TrimSpace(j.Description)
	j.JobLocation = strings.TrimSpace(j.JobLocation)
	j.Country = strings.ToUpper(strings.TrimSpace(j.Country))
	j.PostingURL = strings.TrimSpace(j.PostingURL)
	j.DateOpened = strings.TrimSpace(j.DateOpened)
	j.SalaryCurrency = strings.ToUpper(strings.TrimSpace(j.SalaryCurrency))
	if j.Status == "" {
		j.Status = StatusNotApplied
	}
	return j
}

func ValidateJobOpening(j JobOpening) Validation {
	var res Validation

	required := func(name, val string) {
		if val == "" {
			res.addErr("%s is required", name)
		} else if len(val) > 255 && name != "description" {
			res.addErr("%s must be at most 255 characters", name)
		}
	}
	required("title", j.Title)
	required("company", j.Company)
	required("description", j.Description)

	if len(j.JobLocation) > 255 {
		res.addErr("jobLocation must be at most 255 characters")
	}
	if j.Country != "" && !countryRe.MatchString(j.Country) {
		res.addErr("country must be a 2-letter code, got %q", j.Country)
	}
	if j.PostingURL != "" {
		u, err := url.Parse(j.PostingURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("postingUrl must be an absolute URL")
		} else if len(j.PostingURL) > 2048 {
			res.addErr("postingUrl must be at most 2048 characters")
		}
	}
	if j.DateOpened != "" {
		if _, err := time.Parse(time.DateOnly, j.DateOpened); err != nil {
			res.addErr("dateOpened must be YYYY-MM-DD, got %q", j.DateOpened)
		}
	}

	if _, err := ParseStatus(string(j.Status)); err != nil {
		res.addErr("status: %v", err)
	}
	if !j.Track.Valid() {
		res.addErr("track must be engineering or management, got %q", j.Track)
	}
	if !j.WorkLocation.Valid() {
		res.addErr("workLocation must be remote, hybrid or office, got %q", j.WorkLocation)
	}

	if j.SalaryMin != nil && *j.SalaryMin <= 0 {
		res.addErr("salaryMin must be positive")
	}
	if j.SalaryMax != nil && *j.SalaryMax <= 0 {
		res.addErr("salaryMax must be positive")
	}
	if j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax {
		res.addWarn("salaryMin (%d) is greater than salaryMax (%d)", *j.SalaryMin, *j.SalaryMax)
	}
	if j.SalaryCurrency != "" && !currencyRe.MatchString(j.SalaryCurrency) {
		res.addErr("salaryCurrency must be a 3-letter code, got %q", j.SalaryCurrency)
	}

	rated := 0
	for _, ci := range criteria {
		r := ci.Field(&j.Ratings)
		if !r.Valid {
			continue
		}
		rated++
		if r.Int < -1 || r.Int > 1 {
			res.addErr("rating %s must be -1, 0 or 1, got %d", ci.Criterion, r.Int)
		}
	}
	if rated == 0 {
		res.addWarn("no criteria rated yet; the job will score only its wow boost")
	}

	return res
}

// NormalizeFormula trims the name and drops nothing else; weights are kept
// exactly as given.
func NormalizeFormula(f ScoringFormula) ScoringFormula {
	f.Name = strings.TrimSpace(f.Name)
	if f.Weights == nil {
		f.Weights = Weights{}
	}
	return f
}

func ValidateFormula(f ScoringFormula) Validation {
	var res Validation

	if f.Name == "" {
		res.addErr("name is required")
	} else if len(f.Name) > 255 {
		res.addErr("name must be at most 255 characters")
	}

	keys := make([]string, 0, len(f.Weights))
	for k := range f.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !IsWeightKey(k) {
			res.addErr("weights.%s is not a known criterion", k)
		}
	}

	for _, ci := range criteria {
		if _, ok := f.Weights[string(ci.Criterion)]; !ok {
			res.addWarn("weights.%s is missing and counts as 0", ci.Criterion)
		}
	}

	return res
}
