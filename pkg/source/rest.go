package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/schollz/progressbar/v3"

	"prodreport/internal/utils"
	"prodreport/pkg/database"
	"prodreport/pkg/models"
)

// RESTSource reads a table through a PostgREST endpoint (Supabase exposes one
// under /rest/v1), paging with Range headers.
type RESTSource struct {
	BaseURL  string
	Table    string
	APIKey   string
	PageSize int
	Progress bool
	Client   *retryablehttp.Client
}

// NewRESTSource returns a source with a retrying client and the default page size.
func NewRESTSource(baseURL, table, apiKey string) *RESTSource {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = 3

	return &RESTSource{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Table:    table,
		APIKey:   apiKey,
		PageSize: database.DefaultPageSize,
		Client:   client,
	}
}

func (s *RESTSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	if !utils.ValidTableName(s.Table) {
		return nil, fmt.Errorf("invalid table name %q", s.Table)
	}
	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = database.DefaultPageSize
	}
	endpoint := fmt.Sprintf("%s/rest/v1/%s?select=*", strings.TrimRight(s.BaseURL, "/"), s.Table)

	var bar *progressbar.ProgressBar
	if s.Progress {
		bar = progressbar.Default(-1, "fetching "+s.Table)
	}

	var out []models.RawRecord
	for from := 0; ; from += pageSize {
		page, err := s.fetchPage(ctx, endpoint, from, from+pageSize-1)
		if err != nil {
			return nil, fmt.Errorf("fetch %s range=%d: %w", s.Table, from, err)
		}
		utils.Log.Debugf("fetched %d rows from %s at offset %d", len(page), endpoint, from)
		out = append(out, page...)
		if bar != nil {
			_ = bar.Add(len(page))
		}
		if len(page) < pageSize {
			break
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	utils.Log.Infof("loaded %d records from %s", len(out), s.Table)
	return out, nil
}

func (s *RESTSource) fetchPage(ctx context.Context, endpoint string, from, to int) ([]models.RawRecord, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", fmt.Sprintf("%d-%d", from, to))
	if s.APIKey != "" {
		req.Header.Set("apikey", s.APIKey)
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	client := s.Client
	if client == nil {
		client = retryablehttp.NewClient()
		client.Logger = log.New(io.Discard, "", 0)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	// 416 is PostgREST's answer to a range past the last row
	if res.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("unexpected status %d: %s", res.StatusCode, truncateBody(body))
	}
	return parseRecords(body)
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
