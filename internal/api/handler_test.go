package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"locker-tab-backend/config"
	"locker-tab-backend/internal/model"
	"locker-tab-backend/internal/scan"
	"locker-tab-backend/internal/session"
	"locker-tab-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	handler *Handler
	db      *gorm.DB
}

func fixedSource(box int) scan.Source {
	return scan.SourceFunc(func(context.Context, string) (scan.Availability, error) {
		return scan.FromDraw(box), nil
	})
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))
	return db
}

func newTestServer(t *testing.T, source scan.Source, db *gorm.DB) *testServer {
	t.Helper()
	history := store.NewHistoryStore(store.NewMemoryStore(), nil)
	interp := scan.NewInterpreter(source, scan.LocaleEnglish, nil)

	manager := session.NewManager(time.Minute, func() *session.Controller {
		opts := session.DefaultOptions()
		opts.Location = time.UTC
		return session.NewController(session.Deps{History: history, Interpreter: interp}, opts)
	}, nil)
	t.Cleanup(manager.Close)

	h := NewHandler(manager, db, nil, scan.LocaleEnglish, 30*time.Second, nil)
	router := NewRouter(&config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CacheTTLSeconds: 60,
	}, h)
	return &testServer{router: router, handler: h, db: db}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
