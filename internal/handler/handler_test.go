package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assembly-service/internal/audit"
	"assembly-service/internal/governance"
	"assembly-service/internal/handler"
	"assembly-service/internal/model"
	"assembly-service/internal/realtime"
	"assembly-service/internal/store"
	"assembly-service/internal/store/storetest"
	"assembly-service/pkg/jwtutil"
	"assembly-service/prometheus"
)

const tenantID = uint(1)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *store.Store
	jwt     *jwtutil.JWTUtil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := storetest.Open(t)
	bcast := realtime.NewBroadcaster(64, nil)
	t.Cleanup(bcast.Stop)

	opts := governance.DefaultOptions()
	opts.LockTimeout = 5 * time.Second
	reg := prom.NewRegistry()
	metrics := prometheus.InitMetrics("test", reg)
	coord := governance.NewCoordinator(s, bcast, audit.NewGormRecorder(s), metrics, opts)

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	h := handler.New(coord, s.DB()).WithKeepAlive(50 * time.Millisecond)
	e := handler.NewServer(h, jwtUtil, metrics, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &testServer{t: t, handler: e, store: s, jwt: jwtUtil}
}

func (ts *testServer) token(userID uint, role string) string {
	ts.t.Helper()
	tenant := tenantID
	token, err := ts.jwt.GenerateTokenWithTenant(fmt.Sprintf("user%d@example.com", userID), userID, &tenant, "Torres del Parque", role)
	require.NoError(ts.t, err)
	return token
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// setupOpenItem creates an assembly with one OPEN weighted YES/NO item
func (ts *testServer) setupOpenItem(admin string) (model.Assembly, model.AgendaItem) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/assemblies", admin, map[string]any{
		"title":        "Asamblea ordinaria",
		"scheduled_at": time.Now().UTC(),
		"location":     "Salon comunal",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decode[model.Assembly](ts.t, rec)

	rec = ts.do(http.MethodPost, fmt.Sprintf("/api/assemblies/%d/agenda", a.ID), admin, map[string]any{
		"question": "Approve the 2027 budget?",
		"options":  []string{"YES", "NO"},
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[model.AgendaItem](ts.t, rec)
	assert.True(ts.t, item.IsWeighted)

	rec = ts.do(http.MethodPost, fmt.Sprintf("/api/agenda/%d/open", item.ID), admin, nil)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	return a, item
}

func TestVotingFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(1, governance.RoleAdmin)
	storetest.SeedProperty(t, ts.store, tenantID, 11, "0.5")
	storetest.SeedProperty(t, ts.store, tenantID, 12, "0.3")
	storetest.SeedProperty(t, ts.store, tenantID, 13, "0.2")

	a, item := ts.setupOpenItem(admin)

	for userID, option := range map[uint]string{11: "YES", 12: "YES", 13: "NO"} {
		voter := ts.token(userID, governance.RoleResident)
		rec := ts.do(http.MethodPost, fmt.Sprintf("/api/assemblies/%d/attendance", a.ID), voter, map[string]any{})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = ts.do(http.MethodPost, fmt.Sprintf("/api/agenda/%d/votes", item.ID), voter, map[string]any{"option": option})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := ts.do(http.MethodGet, fmt.Sprintf("/api/assemblies/%d/quorum", a.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[governance.Quorum](t, rec)
	assert.True(t, decimal.NewFromInt(100).Equal(q.CurrentQuorum), "quorum %s", q.CurrentQuorum)
	assert.True(t, q.QuorumReached)

	rec = ts.do(http.MethodPost, fmt.Sprintf("/api/agenda/%d/close", item.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	closed := decode[handler.CloseResponse](t, rec)
	assert.Equal(t, model.AgendaClosed, closed.Item.Status)
	assert.Equal(t, 3, closed.FinalTally.TotalVotes)
	assert.True(t, decimal.NewFromInt(80).Equal(closed.FinalTally.PerOption["YES"].Percentage))
	assert.True(t, decimal.NewFromInt(20).Equal(closed.FinalTally.PerOption["NO"].Percentage))

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/agenda/%d/tally", item.ID), ts.token(11, governance.RoleResident), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[governance.Tally](t, rec).Official)

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/assemblies/%d/audit", a.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]model.AuditEntry](t, rec)
	assert.NotEmpty(t, entries)
	assert.Equal(t, "agendaItemClosed", entries[len(entries)-1].Action)
}

func TestCastVote_ConflictsAreDistinguishable(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(1, governance.RoleAdmin)
	storetest.SeedProperty(t, ts.store, tenantID, 21, "0.4")
	a, item := ts.setupOpenItem(admin)

	voter := ts.token(21, governance.RoleResident)
	rec := ts.do(http.MethodPost, fmt.Sprintf("/api/assemblies/%d/attendance", a.ID), voter, map[string]any{"present": true})
	require.Equal(t, http.StatusOK, rec.Code)

	votePath := fmt.Sprintf("/api/agenda/%d/votes", item.ID)
	rec = ts.do(http.MethodPost, votePath, voter, map[string]any{"option": "YES"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, votePath, voter, map[string]any{"option": "NO"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_VOTE", decode[errorBody](t, rec).Code)

	rec = ts.do(http.MethodPost, fmt.Sprintf("/api/agenda/%d/close", item.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	other := ts.token(22, governance.RoleResident)
	rec = ts.do(http.MethodPost, votePath, other, map[string]any{"option": "NO"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SESSION_NOT_OPEN", decode[errorBody](t, rec).Code)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(1, governance.RoleAdmin)
	resident := ts.token(30, governance.RoleResident)
	a, item := ts.setupOpenItem(admin)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"resident opens", http.MethodPost, fmt.Sprintf("/api/agenda/%d/open", item.ID), resident, nil, http.StatusForbidden, "UNAUTHORIZED"},
		{"resident creates item", http.MethodPost, fmt.Sprintf("/api/assemblies/%d/agenda", a.ID), resident, map[string]any{"question": "q", "options": []string{"A", "B"}}, http.StatusForbidden, "UNAUTHORIZED"},
		{"reopen", http.MethodPost, fmt.Sprintf("/api/agenda/%d/open", item.ID), admin, nil, http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{"unknown assembly", http.MethodGet, "/api/assemblies/9999", admin, nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad id", http.MethodGet, "/api/assemblies/abc", admin, nil, http.StatusBadRequest, "VALIDATION"},
		{"unknown option", http.MethodPost, fmt.Sprintf("/api/agenda/%d/votes", item.ID), admin, map[string]any{"option": "MAYBE"}, http.StatusBadRequest, "VALIDATION"},
		{"not attending", http.MethodPost, fmt.Sprintf("/api/agenda/%d/votes", item.ID), resident, map[string]any{"option": "YES"}, http.StatusForbidden, "NOT_ATTENDING"},
		{"vote for someone else", http.MethodPost, fmt.Sprintf("/api/agenda/%d/votes", item.ID), resident, map[string]any{"option": "YES", "user_id": 31}, http.StatusForbidden, "UNAUTHORIZED"},
		{"complete with open item", http.MethodPost, fmt.Sprintf("/api/assemblies/%d/complete", a.ID), admin, nil, http.StatusConflict, "INVALID_STATE_TRANSITION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decode[errorBody](t, rec).Code)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/assemblies/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/assemblies/1", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	noTenant, err := ts.jwt.GenerateTokenWithTenant("x@example.com", 5, nil, "", governance.RoleAdmin)
	require.NoError(t, err)
	rec = ts.do(http.MethodGet, "/api/assemblies/1", noTenant, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/assemblies/1", ts.token(5, governance.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health?check=db", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["db_status"])

	ts.do(http.MethodGet, "/api/assemblies/1", "", nil)
	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
	assert.Contains(t, rec.Body.String(), "test_auth_errors_total")
}

func TestStreamEvents(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	admin := ts.token(1, governance.RoleAdmin)
	storetest.SeedProperty(t, ts.store, tenantID, 40, "1")
	a, item := ts.setupOpenItem(admin)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/assemblies/%d/events", srv.URL, a.ID), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+admin)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
	}()

	next := func() string {
		t.Helper()
		select {
		case evt := <-events:
			return evt
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return ""
		}
	}

	assert.Equal(t, "quorumUpdate", next())
	assert.Equal(t, "agendaItemOpened", next())
	assert.Equal(t, "voteTallyUpdate", next())

	voter := ts.token(40, governance.RoleResident)
	rec := ts.do(http.MethodPost, fmt.Sprintf("/api/assemblies/%d/attendance", a.ID), voter, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quorumUpdate", next())

	rec = ts.do(http.MethodPost, fmt.Sprintf("/api/agenda/%d/votes", item.ID), voter, map[string]any{"option": "NO"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "voteTallyUpdate", next())

	cancel()
}
