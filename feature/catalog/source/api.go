package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/models"
)

// maxPages bounds pagination so a source returning a cyclic "next"
// field cannot keep a run alive forever.
const maxPages = 100

// recordKeys are the response fields searched for the record array when
// a source wraps its products in an envelope object.
var recordKeys = []string{"items", "products", "data", "records"}

// nextPageKey is the documented pagination field: an absolute URL to
// the next page, absent or empty on the last page.
const nextPageKey = "next"

// APIPullAdapter fetches a merchant's full catalog from an HTTP source.
type APIPullAdapter struct {
	client *http.Client
}

// NewAPIPull creates an API pull adapter with a bounded request timeout.
func NewAPIPull(timeout time.Duration) *APIPullAdapter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIPullAdapter{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves all raw records from the configured source URL,
// following pagination. Network failures and 5xx responses surface as
// RetryableSourceError; 4xx responses are permanent failures.
func (a *APIPullAdapter) Fetch(ctx context.Context, spec models.SourceSpec) ([]value.Value, error) {
	if spec.URL == "" {
		return nil, fmt.Errorf("source url is empty")
	}

	var records []value.Value
	url := spec.URL

	for page := 0; page < maxPages && url != ""; page++ {
		body, err := a.fetchPage(ctx, url, spec)
		if err != nil {
			return nil, err
		}

		pageRecords, next, err := parsePage(body)
		if err != nil {
			return nil, fmt.Errorf("source returned malformed payload: %w", err)
		}

		records = append(records, pageRecords...)
		url = next
	}

	return records, nil
}

// fetchPage issues one authenticated request and returns the raw body.
func (a *APIPullAdapter) fetchPage(ctx context.Context, url string, spec models.SourceSpec) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build source request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	switch spec.AuthKind {
	case models.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+spec.Token)
	case models.AuthBasic:
		req.SetBasicAuth(spec.Username, spec.Password)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		// Timeouts, DNS failures, refused connections: all transient
		return nil, errs.Retryable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errs.Retryable(fmt.Errorf("source responded %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("source responded %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Retryable(fmt.Errorf("failed to read source response: %w", err))
	}
	return body, nil
}

// parsePage extracts records and the next-page URL from a response body.
// Sources either return a bare array of objects or an envelope object
// holding the array under a well-known key plus an optional "next" URL.
func parsePage(body []byte) ([]value.Value, string, error) {
	root, err := value.FromJSON(body)
	if err != nil {
		return nil, "", err
	}

	switch root.Kind() {
	case value.List:
		records := make([]value.Value, 0, root.Len())
		for i := 0; i < root.Len(); i++ {
			item, _ := root.Index(i)
			records = append(records, item)
		}
		return records, "", nil

	case value.Map:
		for _, key := range recordKeys {
			list, ok := root.Lookup(key)
			if !ok || list.Kind() != value.List {
				continue
			}
			records := make([]value.Value, 0, list.Len())
			for i := 0; i < list.Len(); i++ {
				item, _ := list.Index(i)
				records = append(records, item)
			}
			next := ""
			if nextVal, ok := root.Lookup(nextPageKey); ok {
				next = nextVal.AsString()
			}
			return records, next, nil
		}
		return nil, "", fmt.Errorf("no record array found in response object")

	default:
		return nil, "", fmt.Errorf("expected array or object, got scalar")
	}
}
