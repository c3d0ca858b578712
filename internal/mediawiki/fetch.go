package mediawiki

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly"
	"github.com/temoto/robotstxt"

	"wiki_tracker/internal/config"
)

// Fetcher retrieves rendered content for single revisions. It is strictly
// sequential: one request in flight, with a fixed minimum delay between
// requests enforced by the collector's limit rule.
type Fetcher struct {
	collector *colly.Collector
	policy    RetryPolicy
	baseURL   string
	userAgent string
	timeout   time.Duration
	robots    *robotstxt.Group

	// per-request state, valid because fetches never overlap
	retry *retryState
	body  []byte
	err   error
}

func NewFetcher(api config.APIConfig, fetch config.FetchConfig) (*Fetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(api.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(time.Duration(api.TimeoutSec) * time.Second)

	err := c.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      time.Duration(fetch.DelayMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("setting limit rule: %w", err)
	}

	f := &Fetcher{
		collector: c,
		baseURL:   api.BaseURL,
		userAgent: api.UserAgent,
		timeout:   time.Duration(api.TimeoutSec) * time.Second,
		policy: RetryPolicy{
			MaxAttempts: fetch.MaxAttempts,
			BaseDelay:   time.Duration(fetch.BackoffBaseMS) * time.Millisecond,
			MaxDelay:    time.Duration(fetch.BackoffMaxMS) * time.Millisecond,
		},
	}

	c.OnResponse(func(r *colly.Response) {
		f.body = r.Body
		f.err = nil
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode == http.StatusTooManyRequests {
			if delay, ok := f.retry.Next(); ok {
				log.Printf("throttled (429), retrying in %v", delay)
				time.Sleep(delay)
				if retryErr := r.Request.Retry(); retryErr != nil {
					f.err = retryErr
				}
				return
			}
		}
		f.err = err
	})

	return f, nil
}

type parseResponse struct {
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
}

// FetchRevisionHTML returns the rendered HTML for one revision. Exhausted
// retries or a per-revision API error yield *FetchError; callers treat that
// as a gap, not a fatal condition.
func (f *Fetcher) FetchRevisionHTML(revID int64) (string, error) {
	f.retry = f.policy.newState()
	f.body = nil
	f.err = nil

	// The collector reports the first attempt's error even when a retry
	// inside OnError succeeded afterwards, so success is judged from the
	// captured response instead of the return value.
	reqErr := f.collector.Request("GET", RevisionContentURL(f.baseURL, revID), nil, nil, nil)
	f.collector.Wait()

	if f.err == nil && f.body == nil {
		f.err = reqErr
		if f.err == nil {
			f.err = fmt.Errorf("no response received")
		}
	}
	if f.err != nil {
		return "", &FetchError{RevisionID: revID, Attempts: f.attempts(), Err: f.err}
	}

	var parsed parseResponse
	if err := json.Unmarshal(f.body, &parsed); err != nil {
		return "", &FetchError{RevisionID: revID, Attempts: f.attempts(), Err: err}
	}
	if parsed.Error != nil {
		return "", &FetchError{
			RevisionID: revID,
			Attempts:   f.attempts(),
			Err:        fmt.Errorf("api error %s: %s", parsed.Error.Code, parsed.Error.Info),
		}
	}

	return parsed.Parse.Text, nil
}

func (f *Fetcher) attempts() int {
	if n := f.retry.Attempts(); n > 0 {
		return n
	}
	return 1
}

// CheckRobots loads the host's robots.txt and verifies the API path is
// allowed for our user agent. Failures to load or parse robots.txt are
// logged and ignored; an explicit disallow is an error.
func (f *Fetcher) CheckRobots() error {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return fmt.Errorf("parsing base URL: %w", err)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	client := &http.Client{Timeout: f.timeout}
	req, err := http.NewRequest("GET", robotsURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("robots.txt load failed (ignored): %v", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		log.Printf("robots.txt parse failed (ignored): %v", err)
		return nil
	}

	f.robots = data.FindGroup(f.userAgent)
	if f.robots != nil && !f.robots.Test(u.Path) {
		return fmt.Errorf("robots.txt disallows %s for %s", u.Path, f.userAgent)
	}
	return nil
}
