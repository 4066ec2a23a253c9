package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"

	"github.com/necroscout/necroscout/internal/utils"
	"github.com/necroscout/necroscout/pkg/whttp"
)

const (
	catalogPageSize  = 10000
	catalogPageDelay = 1 * time.Second
)

// ErrMissingAPIKey aborts a catalog fetch before any page is requested.
var ErrMissingAPIKey = errors.New("steam api key not configured")

// AppEntry is one row of the enumerated catalog: the cheap (id, name) pair
// the IStoreService list endpoint returns.
type AppEntry struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

// FetchCatalog enumerates the complete Steam app list with cursor-based
// pagination. Every page re-anchors the cursor on its last appid; a short or
// empty page terminates. On any page failure it degrades to the SteamSpy
// snapshot, which is far less complete but keeps discovery usable.
func (c *Client) FetchCatalog(ctx context.Context) ([]AppEntry, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	apps, err := c.fetchCatalogPaginated(ctx)
	if err == nil {
		return apps, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	utils.Log.Warnf("IStoreService enumeration failed: %v", err)
	utils.Log.Warn("Falling back to SteamSpy; the catalog will be incomplete (~1k apps)")
	return c.fetchCatalogSteamSpy(ctx)
}

func (c *Client) fetchCatalogPaginated(ctx context.Context) ([]AppEntry, error) {
	var all []AppEntry
	lastAppID := int64(0)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reqURL := fmt.Sprintf("%s/IStoreService/GetAppList/v1/?key=%s&max_results=%d&last_appid=%d",
			c.apiBase, c.apiKey, c.pageSize, lastAppID)

		utils.Log.Infof("Fetching catalog page %d (cursor appid %d)...", page, lastAppID)
		res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{Method: "GET", URL: reqURL}, c.http)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog page %d: HTTP %d", page, res.StatusCode)
		}

		pageApps := gjson.Get(res.BodyString, "response.apps").Array()
		if len(pageApps) == 0 {
			break
		}

		for _, a := range pageApps {
			all = append(all, AppEntry{
				AppID: a.Get("appid").Int(),
				Name:  a.Get("name").String(),
			})
		}
		lastAppID = pageApps[len(pageApps)-1].Get("appid").Int()

		utils.Log.Infof("  Retrieved %d apps (total %d)", len(pageApps), len(all))

		if len(pageApps) < c.pageSize {
			break
		}

		c.sleep(catalogPageDelay)
	}

	if len(all) == 0 {
		return nil, errors.New("catalog enumeration returned no apps")
	}
	return all, nil
}

func (c *Client) fetchCatalogSteamSpy(ctx context.Context) ([]AppEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{
		Method: "GET",
		URL:    c.spyBase + "/api.php?request=all",
	}, c.http)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("steamspy catalog: HTTP %d", res.StatusCode)
	}

	var apps []AppEntry
	gjson.Parse(res.BodyString).ForEach(func(key, value gjson.Result) bool {
		id := value.Get("appid").Int()
		if id == 0 {
			return true
		}
		apps = append(apps, AppEntry{AppID: id, Name: value.Get("name").String()})
		return true
	})

	if len(apps) == 0 {
		return nil, errors.New("steamspy catalog returned no apps")
	}
	return apps, nil
}

// SaveCatalog overwrites the local catalog cache. Full rewrite only; a
// re-fetch is cheap next to the per-app evaluation phase.
func SaveCatalog(path string, apps []AppEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(apps)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCatalog reads a previously saved catalog cache.
func LoadCatalog(path string) ([]AppEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var apps []AppEntry
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("corrupt catalog cache %s: %w", path, err)
	}
	return apps, nil
}
