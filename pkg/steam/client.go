package steam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/whttp"
)

const (
	STORE_API_BASE = "https://store.steampowered.com"
	STEAM_API_BASE = "https://api.steampowered.com"
	STEAMSPY_BASE  = "https://steamspy.com"

	// Steam tolerates roughly 200 store requests per 5 minutes.
	DefaultRequestInterval = 1500 * time.Millisecond

	defaultBackoffBase = 10 * time.Second
	defaultBackoffMax  = 60 * time.Second
	defaultMaxAttempts = 4
)

var (
	// ErrNotFound means the store has no usable record for the app. Permanent:
	// callers should never retry it.
	ErrNotFound = errors.New("app not found")

	// ErrRateLimited is surfaced only after all backoff attempts are spent.
	// Transient: callers must leave the app eligible for a future run.
	ErrRateLimited = errors.New("rate limited by steam")
)

// App is the parsed subset of a store appdetails response that discovery
// cares about.
type App struct {
	AppID            int64
	Name             string
	Type             string // "game", "dlc", "music", ...
	ShortDescription string
	Genres           []string
	Categories       []string
	PriceUSD         *float64 // nil when the store reports no price
}

// Tag is a community tag with its vote count, from SteamSpy.
type Tag struct {
	Name  string
	Votes int64
}

// Client talks to the Steam store and web APIs with a hard floor on the
// request rate. The last-request timestamp lives on the instance, never in
// package state, so one Client owns exactly one rate budget.
type Client struct {
	apiKey      string
	minInterval time.Duration
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration

	lastRequest time.Time
	http        *retryablehttp.Client
	pageSize    int

	// Injectable for tests with a fake clock.
	now   func() time.Time
	sleep func(time.Duration)

	// Overridable endpoints for tests.
	storeBase string
	apiBase   string
	spyBase   string
}

// NewClient builds a Client. interval <= 0 selects DefaultRequestInterval.
func NewClient(apiKey string, interval time.Duration) *Client {
	if interval <= 0 {
		interval = DefaultRequestInterval
	}

	// Transport-level retries cover network timeouts only: a small fixed
	// number of attempts with a short pause. HTTP 429 is deliberately left to
	// the backoff loop in appRequest, which needs to count those attempts
	// separately.
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 2 * time.Second
	rc.RetryWaitMax = 4 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}

	return &Client{
		apiKey:      apiKey,
		minInterval: interval,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
		http:        rc,
		pageSize:    catalogPageSize,
		now:         time.Now,
		sleep:       time.Sleep,
		storeBase:   STORE_API_BASE,
		apiBase:     STEAM_API_BASE,
		spyBase:     STEAMSPY_BASE,
	}
}

// waitInterval blocks until at least minInterval has passed since the
// previous request, then stamps the new request time.
func (c *Client) waitInterval() {
	elapsed := c.now().Sub(c.lastRequest)
	if elapsed < c.minInterval {
		c.sleep(c.minInterval - elapsed)
	}
	c.lastRequest = c.now()
}

// appRequest performs one rate-limited GET with bounded exponential backoff
// on rate-limit responses. Steam answers 429 or sometimes 403 when it
// throttles the store API.
func (c *Client) appRequest(ctx context.Context, reqURL string) (*whttp.WHTTPRes, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.waitInterval()

		res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{Method: "GET", URL: reqURL}, c.http)
		if err != nil {
			return nil, err
		}

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode == http.StatusForbidden {
			delay := c.backoffBase << attempt
			if delay > c.backoffMax {
				delay = c.backoffMax
			}
			utils.Log.Warnf("Rate limited (HTTP %d), backing off for %s", res.StatusCode, delay)
			c.sleep(delay)
			continue
		}

		return res, nil
	}

	return nil, ErrRateLimited
}

// AppDetails fetches and parses store metadata for a single app.
//
// Outcomes: (*App, nil) on success; ErrNotFound when the store reports no
// data; ErrRateLimited when every backoff attempt was throttled; any other
// error is permanent from the caller's point of view.
func (c *Client) AppDetails(ctx context.Context, appID int64) (*App, error) {
	reqURL := fmt.Sprintf("%s/api/appdetails?appids=%d&cc=US&l=english", c.storeBase, appID)

	res, err := c.appRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		if res.HTTPTitle != "" {
			return nil, fmt.Errorf("appdetails for %d: HTTP %d (%s)", appID, res.StatusCode, res.HTTPTitle)
		}
		return nil, fmt.Errorf("appdetails for %d: HTTP %d", appID, res.StatusCode)
	}

	root := gjson.Get(res.BodyString, strconv.FormatInt(appID, 10))
	if !root.Exists() {
		return nil, fmt.Errorf("appdetails for %d: malformed response", appID)
	}
	if !root.Get("success").Bool() {
		return nil, ErrNotFound
	}

	data := root.Get("data")
	if !data.Exists() {
		return nil, ErrNotFound
	}

	return parseApp(appID, data), nil
}

func parseApp(appID int64, data gjson.Result) *App {
	app := &App{
		AppID:            appID,
		Name:             data.Get("name").String(),
		Type:             data.Get("type").String(),
		ShortDescription: data.Get("short_description").String(),
	}

	for _, g := range data.Get("genres").Array() {
		app.Genres = append(app.Genres, g.Get("description").String())
	}
	for _, cat := range data.Get("categories").Array() {
		app.Categories = append(app.Categories, cat.Get("description").String())
	}

	if data.Get("is_free").Bool() {
		free := 0.0
		app.PriceUSD = &free
	} else if po := data.Get("price_overview"); po.Exists() {
		price := float64(po.Get("final").Int()) / 100
		app.PriceUSD = &price
	}

	return app
}

// AppTags fetches community tags from SteamSpy, sorted by votes. Best-effort:
// every failure degrades to an empty list so a missing side-channel never
// sinks an evaluation. Shares the rate limiter with the store requests.
func (c *Client) AppTags(ctx context.Context, appID int64) []Tag {
	reqURL := fmt.Sprintf("%s/api.php?request=appdetails&appid=%d", c.spyBase, appID)

	res, err := c.appRequest(ctx, reqURL)
	if err != nil {
		utils.Log.Debugf("Tag lookup failed for %d: %v", appID, err)
		return nil
	}
	if res.StatusCode != http.StatusOK {
		utils.Log.Debugf("Tag lookup for %d: HTTP %d", appID, res.StatusCode)
		return nil
	}

	tagsJSON := gjson.Get(res.BodyString, "tags")
	if !tagsJSON.IsObject() {
		return nil
	}

	var tags []Tag
	tagsJSON.ForEach(func(key, value gjson.Result) bool {
		tags = append(tags, Tag{Name: key.String(), Votes: value.Int()})
		return true
	})

	sort.Slice(tags, func(i, j int) bool { return tags[i].Votes > tags[j].Votes })
	return tags
}

// SearchStore queries the store suggest endpoint for apps matching term.
// The response is an HTML fragment, parsed in search.go.
func (c *Client) searchRequest(ctx context.Context, term string) (*whttp.WHTTPRes, error) {
	reqURL := fmt.Sprintf("%s/search/suggest?term=%s&f=games&cc=US&l=english", c.storeBase, url.QueryEscape(term))
	return c.appRequest(ctx, reqURL)
}
