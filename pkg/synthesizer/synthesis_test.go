package synthesizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "See you at seven.", "See you at seven."},
		{"markdown", "**Great!** Your table is `booked`.", "Great! Your table is booked."},
		{"emoji", "See you soon! 🎉🍕", "See you soon!"},
		{"whitespace", "Line one.\n\n  Line   two.", "Line one. Line two."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeText(tc.in))
		})
	}
}

func TestHTTPServiceSynthesize(t *testing.T) {
	var gotReq speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, speechPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte("fake-audio-bytes"))
	}))
	defer server.Close()

	svc := NewHTTPService(HTTPConfig{BaseURL: server.URL, APIKey: "key", Voice: "nova"})
	audio, err := svc.Synthesize(context.Background(), "**Hello** there")
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-audio-bytes"), audio)
	assert.Equal(t, "Hello there", gotReq.Input)
	assert.Equal(t, "nova", gotReq.Voice)
}

func TestHTTPServiceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewHTTPService(HTTPConfig{BaseURL: server.URL})
	_, err := svc.Synthesize(context.Background(), "hello")
	assert.Error(t, err)
}

func TestHTTPServiceNotConfigured(t *testing.T) {
	svc := NewHTTPService(HTTPConfig{})
	_, err := svc.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
