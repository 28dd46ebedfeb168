package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Socialbot/internal/core/publishers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIURL:       server.URL,
		AccessToken:  "ig-token",
		AccountID:    "1789",
		PollInterval: time.Millisecond,
		MaxPolls:     5,
	})
	require.NoError(t, err)
	return client
}

func TestPublish_Image(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/1789/media", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Bearer ig-token", r.Header.Get("Authorization"))
		assert.Equal(t, "Sunset", r.PostForm.Get("caption"))
		assert.Equal(t, "https://cdn.example.com/sunset.jpg", r.PostForm.Get("image_url"))
		_, _ = w.Write([]byte(`{"id":"container-1"}`))
	})
	mux.HandleFunc("/1789/media_publish", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "container-1", r.PostForm.Get("creation_id"))
		_, _ = w.Write([]byte(`{"id":"media-42"}`))
	})

	client := newTestClient(t, mux)
	id, err := client.Publish(context.Background(), "Sunset",
		&publishers.Media{URL: "https://cdn.example.com/sunset.jpg", Type: publishers.MediaImage})

	require.NoError(t, err)
	assert.Equal(t, "media-42", id)
}

func TestPublish_VideoWaitsForProcessing(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/1789/media", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "REELS", r.PostForm.Get("media_type"))
		_, _ = w.Write([]byte(`{"id":"container-2"}`))
	})
	mux.HandleFunc("/container-2", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			_, _ = w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status_code":"FINISHED"}`))
	})
	mux.HandleFunc("/1789/media_publish", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"media-43"}`))
	})

	client := newTestClient(t, mux)
	id, err := client.Publish(context.Background(), "Clip",
		&publishers.Media{URL: "https://cdn.example.com/clip.mp4", Type: publishers.MediaVideo})

	require.NoError(t, err)
	assert.Equal(t, "media-43", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestPublish_VideoProcessingError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/1789/media", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"container-3"}`))
	})
	mux.HandleFunc("/container-3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status_code":"ERROR","status":"unsupported codec"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.Publish(context.Background(), "Clip",
		&publishers.Media{URL: "https://cdn.example.com/clip.mp4", Type: publishers.MediaVideo})

	require.Error(t, err)
	assert.True(t, publishers.IsTransient(err))
}

func TestPublish_RequiresMedia(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.Publish(context.Background(), "text only", nil)

	assert.ErrorIs(t, err, publishers.ErrMediaRequired)
}

func TestPublish_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		status    int
		duplicate bool
	}{
		{"duplicate", `{"error":{"message":"Duplicate media detected","code":9004}}`, http.StatusBadRequest, true},
		{"bad token", `{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`, http.StatusBadRequest, false},
		{"server error", `{}`, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := client.Publish(context.Background(), "hi",
				&publishers.Media{URL: "https://cdn.example.com/a.jpg", Type: publishers.MediaImage})

			require.Error(t, err)
			assert.Equal(t, tt.duplicate, publishers.IsDuplicateContent(err))
			assert.Equal(t, !tt.duplicate, publishers.IsTransient(err))
		})
	}
}

func TestDeleteByPlatformID_Unsupported(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	err := client.DeleteByPlatformID(context.Background(), "media-1")

	assert.ErrorIs(t, err, publishers.ErrDeleteUnsupported)
}
