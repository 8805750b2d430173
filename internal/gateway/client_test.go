package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDecodesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/list", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("Authorization"))

		var req struct {
			Path string `json:"path"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "/media/Show", req.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[
			{"name":"S01","size":0,"isDirectory":true,"modifiedAt":"2026-01-02T03:04:05Z"},
			{"name":"ep1.mkv","size":42,"isDirectory":false,"modifiedAt":"2026-01-02T03:04:05Z","signedUrl":"https://cdn.test/ep1?sig=abc","checksum":"ABC123"}
		]}`))
	}))
	defer srv.Close()

	client, err := New(srv.URL, "secret", 5*time.Second)
	require.NoError(t, err)

	entries, err := client.List(context.Background(), "/media/Show")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].IsDir)
	assert.Equal(t, "/media/Show/S01", entries[0].Path)
	assert.Equal(t, "ep1.mkv", entries[1].Name)
	assert.Equal(t, int64(42), entries[1].Size)
	assert.Equal(t, "ABC123", entries[1].Checksum)
}

func TestListNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(srv.URL, "", time.Second)
	require.NoError(t, err)

	_, err = client.List(context.Background(), "/gone")
	require.True(t, errors.Is(err, ErrPathNotFound))
}

func TestFetchKeepsAuthOnSameHostRedirect(t *testing.T) {
	var finalAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/second", http.StatusFound)
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		finalAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("payload"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := New(srv.URL, "secret", time.Second)
	require.NoError(t, err)

	data, err := client.Fetch(context.Background(), srv.URL+"/first")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "secret", finalAuth)
}

func TestFetchDropsAuthOnCrossHostRedirect(t *testing.T) {
	var crossAuth = "unset"
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		crossAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("bytes"))
	}))
	defer storage.Close()

	gatewaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, storage.URL+"/obj", http.StatusFound)
	}))
	defer gatewaySrv.Close()

	client, err := New(gatewaySrv.URL, "secret", time.Second)
	require.NoError(t, err)

	data, err := client.Fetch(context.Background(), gatewaySrv.URL+"/obj")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
	assert.Empty(t, crossAuth, "credentials must not follow a cross-host redirect")
}

func TestFetchRefusesSecondRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := New(srv.URL, "", time.Second)
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), srv.URL+"/a")
	require.Error(t, err)
}
