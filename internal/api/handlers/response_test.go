package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Reason string `json:"reason" validate:"max=5"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"reason":"ok"}`},
		{name: "empty body", body: ``},
		{name: "unknown field", body: `{"other":1}`, wantErr: true},
		{name: "malformed", body: `{"reason":`, wantErr: true},
		{name: "fails validation", body: `{"reason":"too long"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tt.body))
			var req sampleRequest
			err := DecodeJSON(r, &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondConflict(w, "conflict")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, ErrorResponse{Code: http.StatusConflict, Message: "conflict"}, body)
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	id, err := PathID(mux.SetURLVars(r, map[string]string{"bookingId": "42"}), "bookingId")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = PathID(mux.SetURLVars(r, map[string]string{"bookingId": "abc"}), "bookingId")
	assert.Error(t, err)

	_, err = PathID(mux.SetURLVars(r, map[string]string{"bookingId": "0"}), "bookingId")
	assert.Error(t, err)
}
