package models

import (
	"fmt"
	"net/url"
	"strings"
)

type SearchRequest struct {
	Site      Site
	SearchURL string
	Limit     int
	SheetName string
	// ScrollAttempts only applies to Facebook.
	ScrollAttempts int
}

var siteDomains = map[Site]string{
	Craigslist: "craigslist.org",
	Facebook:   "facebook.com",
}

func (r SearchRequest) Validate() error {
	domain, ok := siteDomains[r.Site]
	if !ok {
		return fmt.Errorf("%w: unknown site %q", ErrInvalidRequest, r.Site)
	}

	u, err := url.Parse(strings.TrimSpace(r.SearchURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: search URL %q is not an absolute http(s) URL", ErrInvalidRequest, r.SearchURL)
	}
	host := strings.ToLower(u.Hostname())
	if host != domain && !strings.HasSuffix(host, "."+domain) {
		return fmt.Errorf("%w: search URL host %q is not on %s", ErrInvalidRequest, host, domain)
	}

	if r.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidRequest, r.Limit)
	}
	if strings.TrimSpace(r.SheetName) == "" {
		return fmt.Errorf("%w: sheet name is required", ErrInvalidRequest)
	}
	if r.Site == Facebook && r.ScrollAttempts <= 0 {
		return fmt.Errorf("%w: scroll attempts must be positive, got %d", ErrInvalidRequest, r.ScrollAttempts)
	}
	return nil
}

type ExportResult struct {
	SheetURL string
	SheetID  string
	RowCount int
}

// Phase identifies which half of a run a Progress event belongs to.
type Phase string

const (
	PhaseDiscover Phase = "discover"
	PhaseExtract  Phase = "extract"
)

type Progress struct {
	Site      Site
	Phase     Phase
	Found     int
	Collected int
	Target    int
}
