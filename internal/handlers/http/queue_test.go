package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/telemetry-sidecar/internal/models"
)

func TestNewQueueSizeHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	counter := NewMockCounter(ctrl)
	counter.EXPECT().Count(gomock.Any()).Return(int64(42), nil)

	w := httptest.NewRecorder()
	NewQueueSizeHandler(counter).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue/size", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"size":42}`, w.Body.String())
}

func TestNewQueueSizeHandler_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	counter := NewMockCounter(ctrl)
	counter.EXPECT().Count(gomock.Any()).Return(int64(0), errors.New("no such table"))

	w := httptest.NewRecorder()
	NewQueueSizeHandler(counter).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue/size", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewQueueListHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := int64(1)
	lister := NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any()).Return([]*models.Metric{
		{ID: &id, Name: "cpu", Field: "usage", Tags: models.Tags{{Key: "region", Value: "us-ashburn-1"}}, Value: 5},
	}, nil)

	w := httptest.NewRecorder()
	NewQueueListHandler(lister).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Metric
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "cpu", got[0].Name)
	assert.Equal(t, int64(1), got[0].RecordID())
}

func TestNewQueueListHandler_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any()).Return(nil, nil)

	w := httptest.NewRecorder()
	NewQueueListHandler(lister).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestNewQueueListHandler_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lister := NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any()).Return(nil, errors.New("disk I/O error"))

	w := httptest.NewRecorder()
	NewQueueListHandler(lister).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/queue", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
