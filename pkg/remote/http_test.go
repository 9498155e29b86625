package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"
)

func TestHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient("")
	assert.NotNil(t, err)
}

func TestHTTPClient_GetModule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/settings/module", r.URL.Path)
		assert.Equal(t, "theme", r.URL.Query().Get("module"))

		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}

		_, _ = w.Write([]byte(`{"mode":"dark"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	data, found, err := client.GetModule(context.Background(), "theme")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"mode":"dark"}`, string(data))
}

func TestHTTPClient_NotFoundIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	data, found, err := client.GetModule(context.Background(), "theme")
	assert.Nil(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestHTTPClient_RetriesTransientFailures(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte(`{"mode":"dark"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	data, found, err := client.GetModule(context.Background(), "theme")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"mode":"dark"}`, string(data))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestHTTPClient_GetModuleExhaustsRetries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	_, _, err = client.GetModule(context.Background(), "theme")
	assert.NotNil(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))

	var rpcErr *RPCError
	assert.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "GetModule", rpcErr.Op)
	assert.Equal(t, "theme", rpcErr.Module)
}

func TestHTTPClient_GetSettingSingleAttempt(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		assert.Equal(t, "/settings/setting", r.URL.Path)
		assert.Equal(t, "mode", r.URL.Query().Get("key"))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	_, _, err = client.GetSetting(context.Background(), "theme", "mode")
	assert.NotNil(t, err)

	// Field-level reads are opportunistic: one attempt, no retries.
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestHTTPClient_GetSettingTimeout(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`"dark"`))
	}))
	defer server.Close()
	defer close(release)

	client, err := NewHTTPClient(server.URL, WithSettingTimeout(50*time.Millisecond))
	assert.Nil(t, err)

	start := time.Now()
	_, _, err = client.GetSetting(context.Background(), "theme", "mode")
	assert.NotNil(t, err)

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("setting read did not honor its timeout, took %s", elapsed)
	}
}

func TestHTTPClient_PutModule(t *testing.T) {
	var body []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, readErr := io.ReadAll(r.Body)
		assert.Nil(t, readErr)
		body = data

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	err = client.PutModule(context.Background(), "theme", []byte(`{"mode":"dark"}`))
	assert.Nil(t, err)
	assert.Equal(t, `{"mode":"dark"}`, string(body))
}

func TestHTTPClient_PutSetting(t *testing.T) {
	var body []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/settings/setting", r.URL.Path)
		assert.Equal(t, "theme", r.URL.Query().Get("module"))
		assert.Equal(t, "accentColor", r.URL.Query().Get("key"))

		data, readErr := io.ReadAll(r.Body)
		assert.Nil(t, readErr)
		body = data

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)

	err = client.PutSetting(context.Background(), "theme", "accentColor", []byte(`"#ff8800"`))
	assert.Nil(t, err)
	assert.Equal(t, `"#ff8800"`, string(body))
}

func TestHTTPClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL)
	assert.Nil(t, err)
	assert.Nil(t, client.Health(context.Background()))
}
