package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locker-tab-backend/internal/model"
)

func TestPutSubscription_InvalidRequest(t *testing.T) {
	s := newTestServer(t, fixedSource(4), nil)

	w := s.do(http.MethodPut, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	w = s.do(http.MethodPut, "/api/subscriptions", map[string]string{"endpoint": "https://push/1", "p256dh": "k", "auth": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptions_WithoutDatabase(t *testing.T) {
	s := newTestServer(t, fixedSource(4), nil)

	w := s.do(http.MethodGet, "/api/subscriptions?endpoint=https://push/1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubscriptions_Lifecycle(t *testing.T) {
	db := newSQLiteDB(t)
	s := newTestServer(t, fixedSource(4), db)
	endpoint := "https://push.example.com/send/abc"

	w := s.do(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/api/subscriptions", map[string]string{
		"endpoint": endpoint, "p256dh": "key1", "auth": "auth1", "userName": "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// A second PUT for the same endpoint replaces the keys and owner.
	w = s.do(http.MethodPut, "/api/subscriptions", map[string]string{
		"endpoint": endpoint, "p256dh": "key2", "auth": "auth2", "userName": "bob",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored model.PushSubscription
	require.NoError(t, db.First(&stored, "endpoint = ?", endpoint).Error)
	assert.Equal(t, "key2", stored.P256DH)
	assert.Equal(t, "bob", stored.UserName)

	w = s.do(http.MethodGet, "/api/subscriptions?endpoint="+endpoint, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"endpoint":"`+endpoint+`","userName":"bob"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/subscriptions", map[string]string{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}
