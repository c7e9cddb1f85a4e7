package echoServer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"librecords/model"
)

type logRepoMock struct {
	inserted []model.RequestLog
}

func (m *logRepoMock) Insert(ctx context.Context, rec *model.RequestLog) error {
	m.inserted = append(m.inserted, *rec)
	return nil
}

func (m *logRepoMock) List(ctx context.Context, offset, limit int) ([]model.RequestLog, error) {
	return m.inserted, nil
}

func TestRequestLogger_PersistsRow(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	repo := &logRepoMock{}

	e := echo.New()
	e.Use(RequestLogger(log, repo))
	e.GET("/ping", func(c echo.Context) error {
		c.Set("username", "halim")
		return c.JSON(http.StatusOK, echo.Map{"message": "pong"})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.inserted, 1)
	row := repo.inserted[0]
	require.Equal(t, "halim", row.Username)
	require.Equal(t, http.MethodGet, row.Method)
	require.Equal(t, "/ping", row.Path)
	require.Equal(t, http.StatusOK, row.StatusCode)
}

func TestRequestLogger_UnknownUserOnPublicRoute(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	repo := &logRepoMock{}

	e := echo.New()
	e.Use(RequestLogger(log, repo))
	e.GET("/open", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Len(t, repo.inserted, 1)
	require.Equal(t, "unknown", repo.inserted[0].Username)
	require.Equal(t, http.StatusNoContent, repo.inserted[0].StatusCode)
}
