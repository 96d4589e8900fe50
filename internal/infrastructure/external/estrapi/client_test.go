package estrapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	auth   string
	body   []byte
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()

	var mu sync.Mutex
	calls := []recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.Query(),
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, 2*time.Second, zap.NewNop()), &calls
}

func writeEnvelope(w http.ResponseWriter, status int, env map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func TestClient_ListManualCases(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, map[string]interface{}{
			"status":  "success",
			"message": "ok",
			"data": []map[string]interface{}{
				{
					"id":                 "C-1",
					"cif":                "CIF001",
					"amount":             "1500000.50",
					"transaction_date":   "2026-03-01",
					"status_description": "Persetujuan Supervisor Cabang",
					"auth_spv_cabang_at": "2026-03-02 10:00:00",
				},
				{
					"id":          "C-2",
					"amount":      250,
					"status_code": "9",
					"active":      false,
				},
			},
		})
	})

	cases, err := client.ListManualCases(context.Background(), port.CaseFilter{
		Statuses:   []string{"1", "9"},
		BranchCode: "001",
		UserID:     "u1",
	})
	require.NoError(t, err)
	require.Len(t, cases, 2)

	first := cases[0]
	assert.Equal(t, entity.TrackManualCabang, first.Track)
	assert.Equal(t, "2", first.StatusCode, "code resolved from description")
	assert.Equal(t, "1500000.5", first.Amount.String())
	assert.Equal(t, 2026, first.TransactionDate.Year())
	require.NotNil(t, first.AuthSpvCabangAt)
	assert.True(t, first.Active)

	second := cases[1]
	assert.Equal(t, "Ditolak Supervisor Cabang", second.StatusDescription)
	assert.False(t, second.Active)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "GET", call.method)
	assert.Equal(t, "/manual-cabang/cases", call.path)
	assert.Equal(t, "001", call.query.Get("branch_code"))
	assert.Equal(t, "1,9", call.query.Get("status"))
	assert.Equal(t, "Bearer u1", call.auth)
}

func TestClient_SubmitBIFastAction(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, map[string]interface{}{"status": "success", "data": map[string]interface{}{}})
	})

	result, err := client.SubmitAction(context.Background(), port.TransitionRequest{
		Track:       entity.TrackBIFast,
		CaseID:      "B-7",
		Action:      "SUBMIT",
		FromStatus:  "3",
		ToStatus:    "4",
		ActorUserID: "kep1",
		ActorRole:   "estr_opr_kep",
		Fields:      map[string]string{"explanation_opr_kepatuhan": "checked"},
	})
	require.NoError(t, err)
	assert.Equal(t, "4", result.StatusCode)
	assert.Equal(t, "B-7", result.CaseID)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "POST", call.method)
	assert.Equal(t, "/bifast/cases/B-7/actions", call.path)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(call.body, &sent))
	assert.Equal(t, "SUBMIT", sent["action"])
	assert.Equal(t, "checked", sent["fields"].(map[string]interface{})["explanation_opr_kepatuhan"])
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		env    map[string]interface{}
		want   error
		msg    string
	}{
		{"not found", 404, map[string]interface{}{"status": "error", "message": "no such case"}, ErrNotFound, "no such case"},
		{"unauthorized", 401, map[string]interface{}{"status": "error"}, ErrUnauthorized, ""},
		{"server error", 500, map[string]interface{}{"status": "error", "message": "boom"}, ErrRemote, "boom"},
		{"soft failure", 200, map[string]interface{}{"status": "failed", "message": "locked"}, ErrRemote, "locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.env)
			})

			_, err := client.GetCase(context.Background(), entity.TrackManualCabang, "C-1", "u1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.msg, apiErr.Message)
		})
	}
}

func TestClient_TriggerJobAndObserver(t *testing.T) {
	var observed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, map[string]interface{}{"status": "success", "message": "queued"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, zap.NewNop(), WithObserver(func(op string, d time.Duration, err error) {
		observed = append(observed, op)
	}))

	result, err := client.TriggerJob(context.Background(), port.JobTriggerRequest{RunID: "r1", JobName: "PASSBY", RequestedBy: "kep1"})
	require.NoError(t, err)
	assert.True(t, result.Accepted, "accepted defaults to true when data is empty")
	assert.Equal(t, []string{"trigger_job"}, observed)
}

func TestClient_Login(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, map[string]interface{}{
			"status": "success",
			"data":   map[string]interface{}{"user_id": "u9", "name": "Sari", "branch_code": "012", "role": "estr_spv_cab"},
		})
	})

	profile, err := client.Login(context.Background(), "sari", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u9", profile.UserID)
	assert.Equal(t, "estr_spv_cab", profile.Role)
	assert.Empty(t, (*calls)[0].auth)
}

func TestClient_CancelledContext(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, map[string]interface{}{"status": "success"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListJobLogs(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *calls)
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2026-01-02T03:04:05Z", "2026-01-02 03:04:05", "2026-01-02", "02/01/2026"} {
		got, ok := parseTime(s)
		assert.True(t, ok, s)
		assert.Equal(t, 2026, got.Year(), s)
	}
	_, ok := parseTime("yesterday")
	assert.False(t, ok)
}
