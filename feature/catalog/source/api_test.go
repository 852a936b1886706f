package source_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-sync/feature/catalog/errs"
	"catalog-sync/feature/catalog/models"
	"catalog-sync/feature/catalog/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "A1"}, {"id": "A2"}]`)
	}))
	defer srv.Close()

	adapter := source.NewAPIPull(5 * time.Second)
	records, err := adapter.Fetch(context.Background(), models.SourceSpec{URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, records, 2)

	id, ok := records[0].Lookup("id")
	require.True(t, ok)
	assert.Equal(t, "A1", id.AsString())
}

func TestFetchPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page2":
			fmt.Fprint(w, `{"items": [{"id": "A3"}]}`)
		default:
			fmt.Fprintf(w, `{"items": [{"id": "A1"}, {"id": "A2"}], "next": "%s/page2"}`, srv.URL)
		}
	}))
	defer srv.Close()

	adapter := source.NewAPIPull(5 * time.Second)
	records, err := adapter.Fetch(context.Background(), models.SourceSpec{URL: srv.URL})
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFetchAuth(t *testing.T) {
	tests := []struct {
		name string
		spec models.SourceSpec
		want func(t *testing.T, r *http.Request)
	}{
		{
			name: "bearer token",
			spec: models.SourceSpec{AuthKind: models.AuthBearer, Token: "secret-token"},
			want: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
			},
		},
		{
			name: "basic auth",
			spec: models.SourceSpec{AuthKind: models.AuthBasic, Username: "u", Password: "p"},
			want: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				require.True(t, ok)
				assert.Equal(t, "u", user)
				assert.Equal(t, "p", pass)
			},
		},
		{
			name: "no auth",
			spec: models.SourceSpec{AuthKind: models.AuthNone},
			want: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.want(t, r)
				fmt.Fprint(w, `[]`)
			}))
			defer srv.Close()

			spec := tt.spec
			spec.URL = srv.URL
			adapter := source.NewAPIPull(5 * time.Second)
			_, err := adapter.Fetch(context.Background(), spec)
			require.NoError(t, err)
		})
	}
}

func TestFetchErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "server error is retryable", status: http.StatusBadGateway, retryable: true},
		{name: "client error is permanent", status: http.StatusUnauthorized, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			adapter := source.NewAPIPull(5 * time.Second)
			_, err := adapter.Fetch(context.Background(), models.SourceSpec{URL: srv.URL})
			require.Error(t, err)
			assert.Equal(t, tt.retryable, errs.IsRetryable(err))
		})
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing is listening anymore

	adapter := source.NewAPIPull(time.Second)
	_, err := adapter.Fetch(context.Background(), models.SourceSpec{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errs.IsRetryable(err))
}

func TestFetchEmptyURL(t *testing.T) {
	adapter := source.NewAPIPull(time.Second)
	_, err := adapter.Fetch(context.Background(), models.SourceSpec{})
	assert.Error(t, err)
}
