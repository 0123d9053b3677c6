package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbox/dashboard/repositories/postgres"
	"github.com/tbox/dashboard/services/audit"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type fixedAuditStats struct{ started bool }

func (f fixedAuditStats) GetStats() audit.Stats {
	return audit.Stats{Started: f.started, WorkerCount: 1, BufferSize: 10}
}

// decodeHealth unwraps the success envelope of a health reply.
func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "missing data envelope: %v", response)
	return data
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, nil, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeHealth(t, w)
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHandleReadiness_Database(t *testing.T) {
	tests := []struct {
		name       string
		expect     func(mock sqlmock.Sqlmock)
		wantStatus int
		wantBody   string
		wantCheck  string
	}{
		{
			name: "database answers",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
			wantCheck:  "healthy",
		},
		{
			name: "ping fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(sql.ErrConnDone)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
			wantCheck:  "unhealthy",
		},
		{
			name: "query fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
			wantCheck:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer conn.Close()
			tt.expect(mock)

			logger := zaptest.NewLogger(t)
			handler := NewHealthHandler(postgres.NewDBFromConn(conn, logger), nil, logger)

			w := httptest.NewRecorder()
			handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			data := decodeHealth(t, w)
			assert.Equal(t, tt.wantBody, data["status"])
			checks := data["checks"].(map[string]interface{})
			assert.Equal(t, tt.wantCheck, checks["database"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandleReadiness_NoDatabase(t *testing.T) {
	handler := NewHealthHandler(nil, nil, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeHealth(t, w)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "disabled", data["checks"].(map[string]interface{})["database"])
}

func TestHandleReadiness_Audit(t *testing.T) {
	tests := []struct {
		name       string
		audit      AuditStats
		wantStatus int
		wantBody   string
		wantCheck  string
	}{
		{"disabled", nil, http.StatusOK, "healthy", "disabled"},
		{"running", fixedAuditStats{started: true}, http.StatusOK, "healthy", "running"},
		{"stopped", fixedAuditStats{started: false}, http.StatusServiceUnavailable, "unhealthy", "stopped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(nil, tt.audit, zap.NewNop())

			w := httptest.NewRecorder()
			handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			data := decodeHealth(t, w)
			assert.Equal(t, tt.wantBody, data["status"])
			assert.Equal(t, tt.wantCheck, data["checks"].(map[string]interface{})["audit"])
		})
	}
}
