package scan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"locker-tab-backend/config"
)

func TestRemoteSource_Lookup(t *testing.T) {
	var got lookupRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"box": 12, "available": true},
		})
	}))
	defer server.Close()

	src := NewRemoteSource(config.LookupConfig{
		URL:            server.URL,
		Headers:        map[string]string{"X-Api-Key": "secret"},
		TimeoutSeconds: 5,
	}, zap.NewNop())

	a, err := src.Lookup(context.Background(), "locker://A3/12")
	require.NoError(t, err)
	assert.Equal(t, Availability{Box: 12, Available: true}, a)

	assert.Equal(t, "locker://A3/12", got.Payload)
	assert.Equal(t, "A3", got.Cabinet)
	require.NotNil(t, got.Box)
	assert.Equal(t, 12, *got.Box)
}

func TestRemoteSource_RawPayload(t *testing.T) {
	var got lookupRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"data":{"box":3,"available":false}}`))
	}))
	defer server.Close()

	src := NewRemoteSource(config.LookupConfig{URL: server.URL, TimeoutSeconds: 5}, zap.NewNop())
	a, err := src.Lookup(context.Background(), "not a label")
	require.NoError(t, err)
	assert.Equal(t, Availability{Box: 3, Available: false}, a)
	assert.Nil(t, got.Box)
	assert.Empty(t, got.Cabinet)
}

func TestRemoteSource_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "Non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "Application error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"code":7,"data":{}}`))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(tc.handler)
			defer server.Close()

			src := NewRemoteSource(config.LookupConfig{URL: server.URL, TimeoutSeconds: 5}, zap.NewNop())
			_, err := src.Lookup(context.Background(), "locker://A/1")
			assert.Error(t, err)
		})
	}
}
