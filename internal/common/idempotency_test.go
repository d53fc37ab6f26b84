package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdem(t *testing.T) Idem {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}
}

func doRequest(handler http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdemRejectsDuplicateKey(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	first := doRequest(handler, "order-attempt-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(handler, "order-attempt-1")
	require.Equal(t, http.StatusConflict, second.Code)
	require.Contains(t, second.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, calls)
}

func TestIdemDistinctKeysPass(t *testing.T) {
	idem := newIdem(t)
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	require.Equal(t, http.StatusCreated, doRequest(handler, "key-a").Code)
	require.Equal(t, http.StatusCreated, doRequest(handler, "key-b").Code)
}

func TestIdemMissingHeaderPassesThrough(t *testing.T) {
	idem := newIdem(t)
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	require.Equal(t, http.StatusCreated, doRequest(handler, "").Code)
	require.Equal(t, http.StatusCreated, doRequest(handler, "").Code)
}
