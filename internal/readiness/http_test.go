package readiness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/example-app/internal/errors"
)

func Test_HTTPChecker_Check_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker, err := NewHTTPChecker(server.URL, 5*time.Second, 100*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	assert.NoError(t, checker.Check(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func Test_HTTPChecker_Check_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker, err := NewHTTPChecker(server.URL, 300*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)

	err = checker.Check(context.Background())
	assert.ErrorIs(t, err, errors.ErrReadinessTimeout)
}

func Test_HTTPChecker_Check_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker, err := NewHTTPChecker(server.URL, 5*time.Second, 200*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, checker.Check(ctx), context.Canceled)
}

func Test_HTTPChecker_Check_EventualSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker, err := NewHTTPChecker(server.URL, 5*time.Second, 50*time.Millisecond)
	require.NoError(t, err)

	assert.NoError(t, checker.Check(context.Background()))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func Test_HTTPChecker_Check_Unreachable(t *testing.T) {
	checker, err := NewHTTPChecker("http://127.0.0.1:1", 300*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)

	assert.ErrorIs(t, checker.Check(context.Background()), errors.ErrReadinessTimeout)
}

func Test_NewHTTPChecker_Validation(t *testing.T) {
	_, err := NewHTTPChecker("", time.Second, time.Second)
	assert.ErrorIs(t, err, errors.ErrReadinessURL)

	_, err = NewHTTPChecker("http://localhost", time.Second, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}
