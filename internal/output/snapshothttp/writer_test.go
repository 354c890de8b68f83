package snapshothttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evedash/pkg/models"
)

func TestNewWriterRequiresURL(t *testing.T) {
	_, err := NewWriter(Config{})
	assert.Error(t, err)
}

func TestWriteSnapshotPostsJSON(t *testing.T) {
	var got models.Snapshot
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer t"}})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.WriteSnapshot(context.Background(), &models.Snapshot{ID: "abc"}))
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "Bearer t", auth)
}

func TestWriteSnapshotRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL, Attempts: 3, Delay: time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, w.WriteSnapshot(context.Background(), &models.Snapshot{ID: "x"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWriteSnapshotDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	w, err := NewWriter(Config{URL: srv.URL, Attempts: 3, Delay: time.Millisecond})
	require.NoError(t, err)

	err = w.WriteSnapshot(context.Background(), &models.Snapshot{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
