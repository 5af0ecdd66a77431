package scraper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"truck-scraper/config"
	"truck-scraper/models"
	"truck-scraper/session"
	"truck-scraper/utils"

	"github.com/PuerkitoBio/goquery"
)

// unchangedScrollLimit is how many scroll passes in a row may add nothing
// before the results are considered exhausted.
const unchangedScrollLimit = 3

type ProgressFunc func(models.Progress)

// Collector walks a search, discovers listings and extracts them, one
// browser per run.
type Collector struct {
	cfg      *config.Config
	launcher Launcher
	sessions *session.Manager
	prompter LoginPrompter
}

func NewCollector(cfg *config.Config, launcher Launcher) *Collector {
	return &Collector{cfg: cfg, launcher: launcher}
}

// WithSessions enables saved sessions for sites that need a login. The
// prompter is used only when the configuration allows interactive login.
func (c *Collector) WithSessions(m *session.Manager, p LoginPrompter) *Collector {
	c.sessions = m
	c.prompter = p
	return c
}

// Collect drains Listings into a slice. Listings gathered before a fatal
// error are returned along with it.
func (c *Collector) Collect(ctx context.Context, site Site, req models.SearchRequest, progress ProgressFunc) ([]models.Listing, error) {
	var listings []models.Listing
	for l, err := range c.Listings(ctx, site, req, progress) {
		if err != nil {
			return listings, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// Listings yields up to req.Limit listings in discovery order. Each call
// starts a fresh run. A non-nil error is yielded at most once and ends the
// sequence; failures on individual listings are logged and skipped.
//
// Cancelling ctx stops the run at the next listing boundary. A listing that
// is already loading runs to completion or to its own timeout.
func (c *Collector) Listings(ctx context.Context, site Site, req models.SearchRequest, progress ProgressFunc) iter.Seq2[models.Listing, error] {
	return func(yield func(models.Listing, error) bool) {
		r := &run{c: c, site: site, req: req, progress: progress}
		defer r.close()

		if err := r.open(ctx); err != nil {
			yield(models.Listing{}, err)
			return
		}

		candidates, err := r.discover(ctx)
		if err != nil {
			yield(models.Listing{}, err)
			return
		}
		utils.Success("Discovered %d unique listings (target %d)", len(candidates), req.Limit)

		r.extract(ctx, candidates, yield)
		r.refreshSession(ctx)
	}
}

// Login opens a visible browser on site and saves the session once the
// person at the keyboard has logged in. It needs WithSessions.
func (c *Collector) Login(ctx context.Context, site LoginSite) error {
	if c.sessions == nil || c.prompter == nil {
		return errors.New("login needs a session manager and a prompter")
	}
	r := &run{c: c, site: site}
	defer r.close()

	if err := r.launch(ctx, false); err != nil {
		return err
	}
	return r.login(ctx, site)
}

type run struct {
	c        *Collector
	site     Site
	req      models.SearchRequest
	progress ProgressFunc

	browser       Browser
	pageURL       string
	authenticated bool
}

func (r *run) close() {
	if r.browser == nil {
		return
	}
	utils.Info("Closing browser...")
	if err := r.browser.Close(); err != nil {
		utils.Warn("Browser did not close cleanly: %v", err)
	}
	r.browser = nil
}

func (r *run) launch(ctx context.Context, headless bool) error {
	r.close()
	mode := "headless"
	if !headless {
		mode = "visible"
	}
	utils.Info("Launching Chrome browser (%s)...", mode)
	b, err := r.c.launcher.Launch(ctx, headless)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	r.browser = b
	utils.Success("Browser ready")
	return nil
}

func (r *run) open(ctx context.Context) error {
	login, ok := r.site.(LoginSite)
	if !ok || r.c.sessions == nil {
		if err := r.launch(ctx, r.c.cfg.Headless); err != nil {
			return err
		}
		return r.loadSearch(ctx)
	}
	return r.openAuthenticated(ctx, login)
}

// openAuthenticated resumes a saved session when the site still accepts
// it, and otherwise falls back to an interactive login or fails.
func (r *run) openAuthenticated(ctx context.Context, login LoginSite) error {
	sessions := r.c.sessions

	state, err := sessions.Load(ctx)
	if err != nil {
		utils.Warn("Could not load saved session: %v", err)
	}

	if state != nil {
		utils.Info("Saved %s session found, trying it first", r.site.Name())
		if err := r.launch(ctx, r.c.cfg.Headless); err != nil {
			return err
		}
		if err := r.navigate(ctx, login.HomeURL()); err != nil {
			return err
		}
		if err := r.browser.SetCookies(ctx, state.Cookies); err != nil {
			utils.Warn("Could not restore session cookies: %v", err)
		}
		if err := r.loadSearch(ctx); err != nil {
			return err
		}

		check := session.CheckFunc(func(ctx context.Context, _ *session.State) (bool, error) {
			return r.loggedIn(ctx, login)
		})
		if sessions.IsValid(ctx, state, check) {
			utils.Success("Saved %s session accepted", r.site.Name())
			r.authenticated = true
			return nil
		}
		utils.Warn("Saved %s session was rejected", r.site.Name())
	}

	if !r.c.cfg.Interactive() || r.c.prompter == nil {
		return fmt.Errorf("%s: fresh login required: %w", r.site.Name(), models.ErrAuthenticationRequired)
	}

	if err := r.launch(ctx, false); err != nil {
		return err
	}
	if err := r.login(ctx, login); err != nil {
		return err
	}
	return r.loadSearch(ctx)
}

func (r *run) login(ctx context.Context, login LoginSite) error {
	if err := r.navigate(ctx, login.HomeURL()); err != nil {
		return err
	}
	if err := r.c.prompter.WaitForLogin(ctx, login.HomeURL()); err != nil {
		return fmt.Errorf("interactive login: %w", err)
	}

	ok, err := r.loggedIn(ctx, login)
	if err != nil {
		return fmt.Errorf("verify login: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s login was not completed: %w", r.site.Name(), models.ErrAuthenticationRequired)
	}

	r.authenticated = true
	r.saveCookies(ctx)
	return nil
}

func (r *run) loggedIn(ctx context.Context, login LoginSite) (bool, error) {
	doc, err := r.snapshot(ctx)
	if err != nil {
		return false, err
	}
	tctx, cancel := context.WithTimeout(ctx, r.c.cfg.RequestTimeout)
	defer cancel()
	location, err := r.browser.Location(tctx)
	if err != nil {
		return false, err
	}
	return !login.LoginRequired(doc, location), nil
}

func (r *run) saveCookies(ctx context.Context) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.c.cfg.RequestTimeout)
	defer cancel()
	cookies, err := r.browser.Cookies(tctx)
	if err != nil {
		utils.Warn("Could not read session cookies: %v", err)
		return
	}
	if err := r.c.sessions.Save(tctx, cookies); err != nil {
		utils.Warn("Could not save session: %v", err)
		return
	}
	utils.Success("Session saved for future runs")
}

// refreshSession stores the latest cookies; sites rotate session tokens.
func (r *run) refreshSession(ctx context.Context) {
	if !r.authenticated || r.browser == nil {
		return
	}
	r.saveCookies(ctx)
}

func (r *run) navigate(ctx context.Context, target string) error {
	tctx, cancel := context.WithTimeout(ctx, r.c.cfg.RequestTimeout)
	defer cancel()
	if err := r.browser.Navigate(tctx, target); err != nil {
		return &models.NavigationError{URL: target, Err: err}
	}
	r.pageURL = target
	return nil
}

// loadSearch opens a results page and waits for results to render. A wait
// timeout is not fatal: the page may simply be slow or empty.
func (r *run) loadSearch(ctx context.Context) error {
	return r.loadResults(ctx, r.req.SearchURL)
}

func (r *run) loadResults(ctx context.Context, target string) error {
	utils.Info("Loading %s search page...", r.site.Name())
	if err := r.navigate(ctx, target); err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, r.c.cfg.ResultsWait)
	defer cancel()
	if err := r.browser.WaitReady(wctx, r.site.ResultsSelector()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		utils.Warn("Timed out waiting for listings, continuing anyway")
	}
	return nil
}

func (r *run) snapshot(ctx context.Context) (*goquery.Document, error) {
	tctx, cancel := context.WithTimeout(ctx, r.c.cfg.RequestTimeout)
	defer cancel()
	html, err := r.browser.HTML(tctx)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (r *run) report(phase models.Phase, found, collected int) {
	if r.progress == nil {
		return
	}
	r.progress(models.Progress{
		Site:      r.site.Name(),
		Phase:     phase,
		Found:     found,
		Collected: collected,
		Target:    r.req.Limit,
	})
}

// discovery accumulates candidates with set semantics on the URL.
type discovery struct {
	seen  map[string]bool
	found []Candidate
}

func (d *discovery) add(candidates []Candidate) int {
	added := 0
	for _, c := range candidates {
		if c.URL == "" || d.seen[c.URL] {
			continue
		}
		d.seen[c.URL] = true
		d.found = append(d.found, c)
		added++
	}
	return added
}

func (r *run) discover(ctx context.Context) ([]Candidate, error) {
	d := &discovery{seen: make(map[string]bool)}

	var err error
	switch r.site.Pagination() {
	case InfiniteScroll:
		err = r.discoverByScrolling(ctx, d)
	default:
		err = r.discoverByPages(ctx, d)
	}
	return d.found, err
}

func (r *run) base() *url.URL {
	u, err := url.Parse(r.pageURL)
	if err != nil {
		return nil
	}
	return u
}

func (r *run) discoverByPages(ctx context.Context, d *discovery) error {
	for page := 1; page <= r.c.cfg.MaxSearchPages; page++ {
		doc, err := r.snapshot(ctx)
		if err != nil {
			if page == 1 {
				return &models.NavigationError{URL: r.pageURL, Err: err}
			}
			utils.Warn("Could not read search page %d: %v", page, err)
			return nil
		}

		base := r.base()
		added := d.add(r.site.Discover(doc, base))
		utils.Info("Search page %d: %d new listings (%d total)", page, added, len(d.found))
		r.report(models.PhaseDiscover, len(d.found), 0)

		if len(d.found) >= r.req.Limit || added == 0 {
			return nil
		}

		next := r.site.NextPage(doc, base)
		if next == "" {
			return nil
		}
		if err := r.loadResults(ctx, next); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			utils.Warn("Could not load search page %d: %v", page+1, err)
			return nil
		}
	}
	utils.Warn("Stopped paging after %d search pages", r.c.cfg.MaxSearchPages)
	return nil
}

func (r *run) discoverByScrolling(ctx context.Context, d *discovery) error {
	var doc *goquery.Document
	count := func() (bool, error) {
		var err error
		doc, err = r.snapshot(ctx)
		if err != nil {
			return false, err
		}
		return len(r.site.Discover(doc, r.base())) > 0, nil
	}

	// Results can render well after the page reports ready.
	if _, err := utils.Poll(ctx, 2, r.c.cfg.PageSettle, count); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return &models.NavigationError{URL: r.pageURL, Err: err}
	}
	d.add(r.site.Discover(doc, r.base()))
	utils.Info("Initial %s listings found: %d", r.site.Name(), len(d.found))
	r.report(models.PhaseDiscover, len(d.found), 0)

	unchanged := 0
	for attempt := 1; attempt <= r.req.ScrollAttempts && len(d.found) < r.req.Limit; attempt++ {
		doc, err := r.scroll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				utils.Warn("Scroll %d failed: %v", attempt, err)
			}
			return nil
		}

		added := d.add(r.site.Discover(doc, r.base()))
		utils.Info("Scroll %d/%d: %d new listings (%d total)", attempt, r.req.ScrollAttempts, added, len(d.found))
		r.report(models.PhaseDiscover, len(d.found), 0)

		if added > 0 {
			unchanged = 0
			continue
		}
		unchanged++
		if unchanged >= unchangedScrollLimit {
			utils.Info("No new listings after %d scrolls, stopping", unchanged)
			return nil
		}
	}
	return nil
}

// scroll moves to the bottom of the page and returns the page once lazy
// loading has had time to finish.
func (r *run) scroll(ctx context.Context) (*goquery.Document, error) {
	tctx, cancel := context.WithTimeout(ctx, r.c.cfg.RequestTimeout)
	err := r.browser.ScrollToBottom(tctx)
	cancel()
	if err != nil {
		return nil, err
	}
	if err := utils.Sleep(ctx, r.c.cfg.ScrollDelay); err != nil {
		return nil, err
	}

	doc, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if sel := r.site.LoadingSelector(); sel != "" && doc.Find(sel).Length() > 0 {
		utils.Debug("Loading indicator visible, waiting longer")
		if err := utils.Sleep(ctx, r.c.cfg.LoadingWait); err != nil {
			return nil, err
		}
		return r.snapshot(ctx)
	}
	return doc, nil
}

func (r *run) extract(ctx context.Context, candidates []Candidate, yield func(models.Listing, error) bool) {
	visits := r.site.ListingSelector() != ""
	collected, failed := 0, 0

	for i, cand := range candidates {
		if collected >= r.req.Limit {
			break
		}
		if ctx.Err() != nil {
			utils.Warn("Stop requested, finishing with %d listings", collected)
			break
		}

		var listing models.Listing
		if visits {
			if i > 0 {
				if err := utils.RandomDelay(ctx, r.c.cfg.MinDelay, r.c.cfg.MaxDelay); err != nil {
					utils.Warn("Stop requested, finishing with %d listings", collected)
					break
				}
			}
			utils.Info("Processing %s listing %d/%d", r.site.Name(), collected+1, r.req.Limit)
			l, err := r.visit(ctx, cand.URL)
			if err != nil {
				failed++
				utils.Error("Skipping listing: %v", err)
				continue
			}
			listing = l
		} else {
			listing = r.site.Extract(cand.URL, cand.Card)
		}

		collected++
		title, _ := listing.Get(models.FieldTitle)
		utils.Success("✓ %s", truncate(title, 50))
		r.report(models.PhaseExtract, len(candidates), collected)

		if !yield(listing, nil) {
			return
		}
	}

	utils.Success("Listings extracted: %d | Failed: %d", collected, failed)
}

// visit loads one listing page. It ignores cancellation of ctx so that a
// stop request never interrupts a listing half way; the listing timeout
// still bounds it.
func (r *run) visit(ctx context.Context, listingURL string) (models.Listing, error) {
	vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.c.cfg.ListingTimeout)
	defer cancel()

	if err := r.browser.Navigate(vctx, listingURL); err != nil {
		return models.Listing{}, &models.NavigationError{URL: listingURL, Err: err}
	}
	if err := r.browser.WaitReady(vctx, r.site.ListingSelector()); err != nil {
		return models.Listing{}, &models.NavigationError{URL: listingURL, Err: fmt.Errorf("wait for listing: %w", err)}
	}
	if err := utils.Sleep(vctx, r.c.cfg.PageSettle); err != nil {
		return models.Listing{}, &models.NavigationError{URL: listingURL, Err: err}
	}

	html, err := r.browser.HTML(vctx)
	if err != nil {
		return models.Listing{}, &models.NavigationError{URL: listingURL, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Listing{}, fmt.Errorf("parse %s: %w", listingURL, err)
	}
	return r.site.Extract(listingURL, doc.Selection), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
