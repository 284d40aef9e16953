package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/testutil"
)

func TestClient_Fetch(t *testing.T) {
	model := testutil.SimpleModel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Accept"))
		switch r.URL.Path {
		case "/okay_nabu.tflite":
			w.Write(model)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(5 * time.Second)

	data, err := client.Fetch(context.Background(), server.URL+"/okay_nabu.tflite", 0)
	require.NoError(t, err)
	assert.Equal(t, model, data)

	_, err = client.Fetch(context.Background(), server.URL+"/missing.tflite", 0)
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = client.Fetch(context.Background(), server.URL+"/okay_nabu.tflite", 16)
	assert.ErrorIs(t, err, domain.ErrModelTooLarge)
}

func TestClient_Fetch_Chunked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Length; the limit has to be enforced while reading.
		for i := 0; i < 4; i++ {
			w.Write(make([]byte, 1024))
			w.(http.Flusher).Flush()
		}
	}))
	defer server.Close()

	_, err := NewClient(5*time.Second).Fetch(context.Background(), server.URL, 2048)
	assert.ErrorIs(t, err, domain.ErrModelTooLarge)
}

func TestClient_Fetch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(time.Second).Fetch(ctx, "http://127.0.0.1:1/model.tflite", 0)
	assert.Error(t, err)
}
