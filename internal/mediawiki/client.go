package mediawiki

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	"wiki_tracker/internal/config"
	"wiki_tracker/internal/models"
)

// Client talks to a MediaWiki-compatible api.php endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func NewClient(cfg config.APIConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

type revisionListResponse struct {
	Continue *struct {
		RvContinue string `json:"rvcontinue"`
	} `json:"continue"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Query struct {
		Pages map[string]struct {
			Missing   *string `json:"missing"`
			Revisions []struct {
				RevID     int64  `json:"revid"`
				Timestamp string `json:"timestamp"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// ListRevisions pages through the article's revision metadata, oldest first,
// until the continuation token is exhausted. Any API-level error aborts the
// listing with *APIError; no partial list is returned.
func (c *Client) ListRevisions(title string) ([]models.Revision, error) {
	var revisions []models.Revision
	rvContinue := ""

	for {
		page, err := c.listPage(title, rvContinue)
		if err != nil {
			return nil, err
		}

		if page.Error != nil {
			return nil, &APIError{Code: page.Error.Code, Info: page.Error.Info}
		}

		for pageID, p := range page.Query.Pages {
			if pageID == "-1" || p.Missing != nil {
				return nil, &APIError{Code: "missing", Info: fmt.Sprintf("article %q not found", title)}
			}
			for _, r := range p.Revisions {
				ts, err := time.Parse(time.RFC3339, r.Timestamp)
				if err != nil {
					return nil, &APIError{Code: "badtimestamp", Info: fmt.Sprintf("revision %d: %v", r.RevID, err)}
				}
				revisions = append(revisions, models.Revision{ID: r.RevID, Timestamp: ts})
			}
		}

		log.Printf("revision list fetch total=%d continue=%v", len(revisions), page.Continue != nil)

		if page.Continue == nil {
			break
		}
		rvContinue = page.Continue.RvContinue
	}

	return revisions, nil
}

func (c *Client) listPage(title, rvContinue string) (*revisionListResponse, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvprop", "ids|timestamp")
	params.Set("rvlimit", "max")
	params.Set("rvdir", "newer")
	if rvContinue != "" {
		params.Set("rvcontinue", rvContinue)
	}

	body, err := c.get(params)
	if err != nil {
		return nil, err
	}

	var parsed revisionListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &APIError{Code: "badresponse", Info: err.Error()}
	}
	return &parsed, nil
}

func (c *Client) get(params url.Values) ([]byte, error) {
	req, err := http.NewRequest("GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, c.baseURL)
	}

	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		utf8Reader = resp.Body
	}

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// RevisionContentURL builds the URL returning rendered HTML for one revision.
func RevisionContentURL(baseURL string, revID int64) string {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "text")
	params.Set("oldid", strconv.FormatInt(revID, 10))
	return baseURL + "?" + params.Encode()
}
