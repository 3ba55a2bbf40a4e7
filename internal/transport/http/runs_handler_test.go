package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/middleware"
	"scadapulse/internal/operations"
	api "scadapulse/pkg/contracts/api/v1"
	"scadapulse/pkg/contracts/events"
)

// MockRunService is a mock implementation of RunService
type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) Location() *time.Location {
	return brisbane
}

func (m *MockRunService) Submit(ctx context.Context, req operations.RunRequest) (events.RunSnapshot, error) {
	args := m.Called(req)
	return args.Get(0).(events.RunSnapshot), args.Error(1)
}

func (m *MockRunService) Get(ctx context.Context, runID string) (events.RunSnapshot, error) {
	args := m.Called(runID)
	return args.Get(0).(events.RunSnapshot), args.Error(1)
}

func (m *MockRunService) List(ctx context.Context, limit int) ([]events.RunSnapshot, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]events.RunSnapshot), args.Error(1)
}

func (m *MockRunService) Cancel(runID string) error {
	return m.Called(runID).Error(0)
}

var brisbane = func() *time.Location {
	loc, err := time.LoadLocation("Australia/Brisbane")
	if err != nil {
		panic(err)
	}
	return loc
}()

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunsRouter(svc RunService) http.Handler {
	logger := testLogger()
	h := NewRunsHandler(svc, middleware.NewValidator(), apperrors.NewErrorHandler(logger, false), logger)
	r := chi.NewRouter()
	r.Mount("/runs", h.Routes())
	return r
}

func TestRunsHandler_StartRun(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockRunService)
		wantStatus int
	}{
		{
			name: "explicit day and units",
			body: `{"day":"2025-03-14","units":["BW01","ER02"],"mode":"archive","documents":true}`,
			setupMock: func(m *MockRunService) {
				m.On("Submit", mock.MatchedBy(func(req operations.RunRequest) bool {
					return req.Day.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, brisbane)) &&
						len(req.Units) == 2 && req.Mode == "archive" && req.Documents &&
						req.Trigger == operations.TriggerAPI
				})).Return(events.RunSnapshot{RunID: "run-1", Day: "2025-03-14", Status: events.StatusPending}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name: "empty body uses defaults",
			body: ``,
			setupMock: func(m *MockRunService) {
				m.On("Submit", mock.MatchedBy(func(req operations.RunRequest) bool {
					return req.Day.IsZero() && req.Units == nil
				})).Return(events.RunSnapshot{RunID: "run-2"}, nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "bad day",
			body:       `{"day":"14/03/2025"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad unit id",
			body:       `{"units":["bw01"]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown mode",
			body:       `{"mode":"live"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"dya":"2025-03-14"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "day already running",
			body: `{"day":"2025-03-14"}`,
			setupMock: func(m *MockRunService) {
				m.On("Submit", mock.Anything).Return(events.RunSnapshot{}, apperrors.NewConflictError("run already active for 2025-03-14"))
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockRunService)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newRunsRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusAccepted {
				var resp api.RunResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Run.RunID)
			} else {
				assert.Contains(t, w.Header().Get("Content-Type"), "json")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRunsHandler_StartRun_RejectsContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(`day=2025-03-14`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newRunsRouter(new(MockRunService)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRunsHandler_ListRuns(t *testing.T) {
	runs := []events.RunSnapshot{
		{RunID: "c", Status: events.StatusRunning},
		{RunID: "b", Status: events.StatusCompleted},
		{RunID: "a", Status: events.StatusCompleted},
	}

	tests := []struct {
		name       string
		query      string
		setupMock  func(*MockRunService)
		wantStatus int
		wantIDs    []string
	}{
		{
			name:       "default limit",
			setupMock:  func(m *MockRunService) { m.On("List", 20).Return(runs, nil) },
			wantStatus: http.StatusOK,
			wantIDs:    []string{"c", "b", "a"},
		},
		{
			name:       "status filter applies limit after filtering",
			query:      "?status=completed&limit=1",
			setupMock:  func(m *MockRunService) { m.On("List", 0).Return(runs, nil) },
			wantStatus: http.StatusOK,
			wantIDs:    []string{"b"},
		},
		{
			name:       "limit out of range",
			query:      "?limit=500",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown status",
			query:      "?status=done",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			setupMock:  func(m *MockRunService) { m.On("List", 20).Return(nil, apperrors.NewStorageError("redis down", nil)) },
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockRunService)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}

			w := httptest.NewRecorder()
			newRunsRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs"+tt.query, nil))

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantIDs != nil {
				var resp api.RunListResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				ids := make([]string, 0, len(resp.Runs))
				for _, r := range resp.Runs {
					ids = append(ids, r.RunID)
				}
				assert.Equal(t, tt.wantIDs, ids)
				assert.Equal(t, len(tt.wantIDs), resp.Count)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRunsHandler_GetAndCancel(t *testing.T) {
	svc := new(MockRunService)
	svc.On("Get", "run-1").Return(events.RunSnapshot{RunID: "run-1", Status: events.StatusRunning}, nil)
	svc.On("Get", "missing").Return(events.RunSnapshot{}, apperrors.NewNotFoundError("run missing"))
	svc.On("Cancel", "run-1").Return(nil)
	svc.On("Cancel", "done").Return(apperrors.NewNotFoundError("active run done"))
	router := newRunsRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/run-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, events.StatusRunning, resp.Run.Status)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/runs/run-1", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "cancelling")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/runs/done", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.AssertExpectations(t)
}
