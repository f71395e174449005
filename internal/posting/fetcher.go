package posting

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/danbim/application-tracker/internal/domain"
)

const maxPageBytes = 4 << 20

type Fetcher struct {
	hc        *http.Client
	limiter   *HostLimiter
	userAgent string
}

func NewFetcher(timeout time.Duration, limiter *HostLimiter, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &Fetcher{
		hc:        &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Prefill downloads a posting page and extracts a draft job from it.
func (f *Fetcher) Prefill(ctx context.Context, raw string) (domain.JobOpening, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.JobOpening{}, fmt.Errorf("posting url must be http(s): %q", raw)
	}

	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, raw); err != nil {
			return domain.JobOpening{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return domain.JobOpening{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := f.hc.Do(req)
	if err != nil {
		return domain.JobOpening{}, fmt.Errorf("get posting: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		log.Printf("[posting] upstream status=%s url=%s body=%q", res.Status, raw, string(b))
		return domain.JobOpening{}, fmt.Errorf("posting status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return domain.JobOpening{}, fmt.Errorf("parse posting html: %w", err)
	}

	// the URL the user gave, not the post-redirect one
	return Extract(doc, CanonicalURL(raw)), nil
}
