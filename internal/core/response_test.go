package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"propertyalerts/internal/types"
)

func requestWithID(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(types.WithRequestID(req.Context(), id))
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, requestWithID("r1"), http.StatusCreated, APIResponse{Data: map[string]int{"n": 1}})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Error("missing content type")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"n":1}}` {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestJSON_MarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, requestWithID("r1"), http.StatusOK, map[string]any{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   types.ErrorCode
		wantMsg    string
	}{
		{
			name:       "not found",
			err:        types.NewAppError(types.ErrCodeNotFoundAlertJob, "alert job not found", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   types.ErrCodeNotFoundAlertJob,
			wantMsg:    "alert job not found",
		},
		{
			name:       "wrapped conflict",
			err:        errors.Join(errors.New("ctx"), types.NewAppError(types.ErrCodeConflictJobLock, "job is locked", nil)),
			wantStatus: http.StatusConflict,
			wantCode:   types.ErrCodeConflictJobLock,
			wantMsg:    "job is locked",
		},
		{
			name:       "generic error hides message",
			err:        errors.New("pq: connection refused to 10.0.0.5"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.ErrCodeInternalUnexpected,
			wantMsg:    "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, requestWithID("req-9"), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp APIErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("bad JSON: %v", err)
			}
			if resp.Error.Code != string(tt.wantCode) || resp.Error.Message != tt.wantMsg {
				t.Errorf("unexpected error detail %+v", resp.Error)
			}
			if resp.Error.RequestID != "req-9" {
				t.Errorf("request id = %q", resp.Error.RequestID)
			}
		})
	}
}

func TestError_IncludesDetails(t *testing.T) {
	err := types.NewAppErrorWithDetails(types.ErrCodeConflictJobLock, "locked", nil, map[string]any{"started_at": "2026-01-01T00:00:00Z"})
	rec := httptest.NewRecorder()
	Error(rec, requestWithID(""), err)

	if !strings.Contains(rec.Body.String(), `"started_at":"2026-01-01T00:00:00Z"`) {
		t.Errorf("details missing: %s", rec.Body.String())
	}
}
