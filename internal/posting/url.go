package posting

import (
	"net/url"
	"sort"
	"strings"
	"unicode"
)

// CanonicalURL drops fragments and tracking parameters so the same posting
// shared through different channels compares equal.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" || lk == "gh_src" || lk == "lever-source" {
			q.Del(k)
		}
	}

	if strings.Contains(u.Host, "linkedin.com") {
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}

	for k := range q {
		sort.Strings(q[k])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// companyFromURL reads the company slug out of well-known applicant tracking
// system URLs:
//
//	boards.greenhouse.io/<slug>/jobs/<id>
//	job-boards.greenhouse.io/<slug>/jobs/<id>
//	jobs.lever.co/<slug>/<uuid>
//	jobs.smartrecruiters.com/<Company>/<id>
//	<tenant>.wd5.myworkdayjobs.com/...
func companyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")

	var slug string
	switch {
	case strings.HasSuffix(host, "greenhouse.io"),
		host == "jobs.lever.co",
		host == "jobs.smartrecruiters.com":
		if len(segs) >= 2 && segs[0] != "" {
			slug = segs[0]
		}
	case strings.Contains(host, ".myworkdayjobs.com"):
		slug = strings.Split(host, ".")[0]
	}
	return humanizeSlug(slug)
}

// humanizeSlug turns "acme-robotics" into "Acme Robotics". Mixed-case slugs
// are left as they are.
func humanizeSlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	if strings.ToLower(slug) != slug {
		return slug
	}
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
