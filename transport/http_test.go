package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/info", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "v1", r.Header.Get("X-Client"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "l2Book", body["type"])

		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/", WithHeader("X-Client", "v1"))
	resp, err := h.Send(context.Background(), http.MethodPost, "info", map[string]any{"type": "l2Book"})

	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, resp)
}

func TestHTTP_GetQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.False(t, r.URL.Query().Has("cursor"))
		_, _ = w.Write([]byte(`{"data":{"list":[]}}`))
	}))
	defer srv.Close()

	type query struct {
		Symbol string  `json:"symbol"`
		Limit  int     `json:"limit"`
		Cursor *string `json:"cursor"`
	}
	h := NewHTTP(srv.URL)
	resp, err := h.Send(context.Background(), http.MethodGet, "/api/v2/mix/order/fill-history", query{Symbol: "BTCUSDT", Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": map[string]any{"list": []any{}}}, resp)
}

func TestHTTP_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down\n"))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL).Send(context.Background(), http.MethodGet, "/x", nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Contains(t, se.Error(), "HTTP 429: slow down")
}

func TestHTTP_BeforeRequestHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "signed", r.Header.Get("Signature"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, WithBeforeRequest(func(r *http.Request) error {
		r.Header.Set("Signature", "signed")
		return nil
	}))
	resp, err := h.Send(context.Background(), http.MethodDelete, "/x", nil)
	require.NoError(t, err)
	assert.Nil(t, resp)

	boom := errors.New("no key")
	h = NewHTTP(srv.URL, WithBeforeRequest(func(*http.Request) error { return boom }))
	_, err = h.Send(context.Background(), http.MethodGet, "/x", nil)
	assert.ErrorIs(t, err, boom)
}

func TestFunc(t *testing.T) {
	var tr Transport = Func(func(_ context.Context, method, path string, params any) (any, error) {
		return method + " " + path, nil
	})
	resp, err := tr.Send(context.Background(), "GET", "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "GET /ping", resp)
}
