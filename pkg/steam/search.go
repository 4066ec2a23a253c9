package steam

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SearchApps queries the store suggest endpoint for apps matching term. The
// endpoint answers an HTML fragment of anchor tags carrying data-ds-appid
// attributes, so this is scraped rather than decoded.
func (c *Client) SearchApps(ctx context.Context, term string, max int) ([]AppEntry, error) {
	res, err := c.searchRequest(ctx, term)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store search for %q: HTTP %d", term, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.BodyString))
	if err != nil {
		return nil, fmt.Errorf("store search for %q: %w", term, err)
	}

	var apps []AppEntry
	doc.Find("a[data-ds-appid]").Each(func(i int, s *goquery.Selection) {
		if max > 0 && len(apps) >= max {
			return
		}

		idAttr, ok := s.Attr("data-ds-appid")
		if !ok {
			return
		}
		appID, err := strconv.ParseInt(idAttr, 10, 64)
		if err != nil {
			return
		}

		name := strings.TrimSpace(s.Find(".match_name").Text())
		if name == "" {
			name = strings.TrimSpace(s.Text())
		}

		apps = append(apps, AppEntry{AppID: appID, Name: name})
	})

	return apps, nil
}
