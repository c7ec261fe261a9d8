// Package spider drives one browser-backed search session against goofish.com:
// navigate, search, sort by newest, then walk the result pages while a network
// observer extracts records from intercepted search API responses.
package spider

import (
	"encoding/base64"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/tt67wq/xianyu-spider/internal/extract"
	"github.com/tt67wq/xianyu-spider/internal/models"
	"github.com/tt67wq/xianyu-spider/pkg/config"
)

const homeURL = "https://www.goofish.com"

// Selectors match the site's DOM at time of writing; no stability contract.
const (
	searchInputSelector  = `input[class*="search-input"]`
	searchSubmitSelector = `button[type="submit"]`
	adCloseSelector      = `div[class*='closeIconBg']`
	nextPageSelector     = `[class*='search-pagination-arrow-right']:not([disabled])`
)

const (
	navigateTimeout     = 30 * time.Second
	selectorTimeout     = 10 * time.Second
	interstitialTimeout = 5 * time.Second
)

// browserLauncher is the part of the launcher handle the session needs:
// spawn the process, and reap it if the session never gets to own it.
type browserLauncher interface {
	Launch() (string, error)
	Kill()
}

// Session is a single navigate→search→paginate→close run for one keyword.
// The response observer appends to records from its own goroutine, so the
// slice is guarded; it is the only state shared with the page loop.
type Session struct {
	conf        config.SpiderConfig
	newLauncher func() browserLauncher

	mu      sync.Mutex
	records []models.ProductRecord
}

func NewSession(conf config.SpiderConfig) *Session {
	return &Session{
		conf: conf,
		newLauncher: func() browserLauncher {
			return launcher.New().Headless(conf.Headless)
		},
	}
}

// Run launches a browser, scrapes up to maxPages result pages for the keyword
// and returns every record the observer extracted. The browser is released on
// every exit path. On a session-level failure the error is returned together
// with whatever records had been collected by then; fewer pages than requested
// (no next-page control) is not an error.
func (s *Session) Run(keyword string, maxPages int) ([]models.ProductRecord, error) {
	l := s.newLauncher()
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		// Chromium is already running at this point and the browser handle
		// never owned it, so reap it through the launcher.
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.MustClose()

	err = s.scrape(browser, keyword, maxPages)
	return s.collected(), err
}

func (s *Session) scrape(browser *rod.Browser, keyword string, maxPages int) error {
	page, err := stealth.Page(browser)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}

	if s.conf.UserAgent != "" {
		ua := &proto.NetworkSetUserAgentOverride{UserAgent: s.conf.UserAgent}
		if err := page.SetUserAgent(ua); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}

	if err := page.Timeout(navigateTimeout).Navigate(homeURL); err != nil {
		return fmt.Errorf("navigate home: %w", err)
	}
	if err := page.Timeout(navigateTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("wait for home page: %w", err)
	}

	input, err := page.Timeout(selectorTimeout).Element(searchInputSelector)
	if err != nil {
		return fmt.Errorf("find search input: %w", err)
	}
	if err := input.Input(keyword); err != nil {
		return fmt.Errorf("fill keyword: %w", err)
	}
	submit, err := page.Timeout(selectorTimeout).Element(searchSubmitSelector)
	if err != nil {
		return fmt.Errorf("find search submit: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}

	s.dismissInterstitial(page)

	// Switch the results to newest-first ordering.
	if err := clickByText(page, "新发布"); err != nil {
		return err
	}
	if err := clickByText(page, "最新"); err != nil {
		return err
	}

	// The observer must be registered before paging starts; it then runs for
	// every matching response until the browser closes.
	s.observeResponses(page)

	delay := time.Duration(s.conf.RequestDelay * float64(time.Second))
	_, err = walkPages(&rodPager{page: page}, maxPages, delay)
	return err
}

// pager is the next-page control as the page loop sees it: probe for it,
// then click it.
type pager interface {
	HasNext() (bool, error)
	ClickNext() error
}

// rodPager backs pager with the live result page. HasNext keeps the element
// it found so ClickNext does not have to query the DOM again.
type rodPager struct {
	page *rod.Page
	next *rod.Element
}

func (p *rodPager) HasNext() (bool, error) {
	has, el, err := p.page.Has(nextPageSelector)
	if err != nil {
		return false, err
	}
	p.next = el
	return has, nil
}

func (p *rodPager) ClickNext() error {
	return p.next.Click(proto.InputMouseButtonLeft, 1)
}

// walkPages drives the result pages. Pages are 1-indexed and the returned
// count is pages attempted; running out of next-page controls before maxPages
// is a normal early stop, not an error. The sleep gives in-flight search
// responses time to land with the observer, but responses are not guaranteed
// to be drained before the next click.
func walkPages(pg pager, maxPages int, delay time.Duration) (int, error) {
	attempted := 0
	for current := 1; current <= maxPages; current++ {
		attempted = current
		log.Printf("Processing page %d", current)
		time.Sleep(delay)

		if current == maxPages {
			break
		}
		has, err := pg.HasNext()
		if err != nil {
			return attempted, fmt.Errorf("query next page control: %w", err)
		}
		if !has {
			log.Printf("No next page control after page %d, stopping early", current)
			break
		}
		if err := pg.ClickNext(); err != nil {
			return attempted, fmt.Errorf("click next page: %w", err)
		}
	}
	return attempted, nil
}

// dismissInterstitial closes the ad popup when one shows up. Its absence is
// the normal case, not an error.
func (s *Session) dismissInterstitial(page *rod.Page) {
	el, err := page.Timeout(interstitialTimeout).Element(adCloseSelector)
	if err != nil {
		log.Println("No ad popup found, continuing")
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		log.Printf("Failed to close ad popup: %v", err)
	}
}

// observeResponses subscribes to Network response events on the page. The
// handler goroutine fetches matching bodies, runs extraction and appends the
// results; it may interleave with the page loop in unspecified order.
func (s *Session) observeResponses(page *rod.Page) {
	go page.EachEvent(func(e *proto.NetworkResponseReceived) {
		if !extract.MatchesSearchAPI(e.Response.URL) {
			return
		}

		res, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(page)
		if err != nil {
			log.Printf("Failed to read search response body: %v", err)
			return
		}
		body := []byte(res.Body)
		if res.Base64Encoded {
			body, err = base64.StdEncoding.DecodeString(res.Body)
			if err != nil {
				log.Printf("Failed to decode search response body: %v", err)
				return
			}
		}

		records := extract.Extract(body)
		if len(records) == 0 {
			return
		}

		s.mu.Lock()
		s.records = append(s.records, records...)
		s.mu.Unlock()
	})()
}

func (s *Session) collected() []models.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ProductRecord, len(s.records))
	copy(out, s.records)
	return out
}

// clickByText clicks the first element whose text matches, the equivalent of
// a text= locator.
func clickByText(page *rod.Page, text string) error {
	el, err := page.Timeout(selectorTimeout).ElementR("div, span, button, a", text)
	if err != nil {
		return fmt.Errorf("find element with text %q: %w", text, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", text, err)
	}
	return nil
}
