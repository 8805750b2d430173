package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMovieBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/movie", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "Stalker", q.Get("query"))
		require.Equal(t, "1979", q.Get("primary_release_year"))
		require.Equal(t, "key", q.Get("api_key"))
		require.Equal(t, "en-US", q.Get("language"))
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":5,"title":"Stalker","release_date":"1979-05-25"}],"total_results":1}`))
	}))
	defer srv.Close()

	client, err := New("key", srv.URL, "en-US")
	require.NoError(t, err)

	resp, err := client.SearchMovie(context.Background(), "Stalker", 1979)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(5), resp.Results[0].ID)
}

func TestGetSeasonDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/99/season/2", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":7,"season_number":2,"episodes":[{"id":1,"name":"Opening","season_number":2,"episode_number":1,"air_date":"2020-01-05"}]}`))
	}))
	defer srv.Close()

	client, err := New("key", srv.URL, "")
	require.NoError(t, err)

	season, err := client.GetSeasonDetails(context.Background(), 99, 2)
	require.NoError(t, err)
	require.Len(t, season.Episodes, 1)
	assert.Equal(t, 1, season.Episodes[0].EpisodeNumber)
	assert.Equal(t, "2020-01-05", season.Episodes[0].AirDate)
}

func TestClientValidatesArguments(t *testing.T) {
	if _, err := New("", "http://x", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
	client, err := New("key", "http://unused.test", "")
	require.NoError(t, err)
	if _, err := client.SearchMovie(context.Background(), "  ", 0); err == nil {
		t.Fatal("expected error for empty query")
	}
	if _, err := client.GetSeasonDetails(context.Background(), 0, 1); err == nil {
		t.Fatal("expected error for invalid show id")
	}
}
