package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/internal/metrics"
	shindanhttp "github.com/aretw0/shindan/pkg/adapters/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T, opts ...shindanhttp.Option) *shindanhttp.Server {
	t.Helper()
	eng, err := shindan.New()
	require.NoError(t, err)
	return shindanhttp.NewServer(eng, opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type nodeJSON struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Text    string `json:"text"`
	Title   string `json:"title"`
	Answers []struct {
		Text   string `json:"text"`
		NextID string `json:"next_id"`
	} `json:"answers"`
}

type viewJSON struct {
	NextID   string   `json:"next_id"`
	Node     nodeJSON `json:"node"`
	Terminal bool     `json:"terminal"`
	Services []struct {
		ID string `json:"id"`
	} `json:"services"`
	ContactLink string `json:"contact_link"`
	Session     *struct {
		ID      string `json:"id"`
		Current string `json:"current"`
		History []struct {
			NodeID      string `json:"node_id"`
			AnswerIndex int    `json:"answer_index"`
		} `json:"history"`
	} `json:"session"`
}

func TestHealthAndInfo(t *testing.T) {
	h := newServer(t, shindanhttp.WithTreeName("shipped")).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(shindan.Version), info["version"])
	assert.Equal(t, "shipped", info["tree"])
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := shindanhttp.GetSwagger()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	assert.NotNil(t, doc.Paths.Find("/sessions/{id}/answers"))

	h := newServer(t).Handler()
	w := do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "title: Shindan API")

	w = do(t, h, http.MethodGet, "/swagger", "")
	assert.Contains(t, w.Body.String(), "SwaggerUIBundle")
}

func TestGetTree(t *testing.T) {
	w := do(t, newServer(t).Handler(), http.MethodGet, "/tree", "")
	require.Equal(t, http.StatusOK, w.Code)

	report := decode[map[string]any](t, w)
	assert.Equal(t, "q1", report["entry"])
	assert.EqualValues(t, 10, report["questions"])
	assert.EqualValues(t, 16, report["results"])
	assert.Empty(t, report["findings"])
}

func TestGetNode(t *testing.T) {
	h := newServer(t).Handler()

	w := do(t, h, http.MethodGet, "/nodes/q1", "")
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[viewJSON](t, w)
	assert.Equal(t, "question", v.Node.Type)
	assert.Len(t, v.Node.Answers, 4)
	assert.False(t, v.Terminal)

	w = do(t, h, http.MethodGet, "/nodes/r-web", "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decode[viewJSON](t, w)
	assert.True(t, v.Terminal)
	require.Len(t, v.Services, 1)
	assert.Equal(t, "web-development", v.Services[0].ID)
	assert.True(t, strings.HasPrefix(v.ContactLink, "/contact/?message="))

	w = do(t, h, http.MethodGet, "/nodes/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "node not found")
}

func TestAdvance(t *testing.T) {
	h := newServer(t).Handler()

	w := do(t, h, http.MethodPost, "/advance", `{"current_id":"q1","answer_index":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decode[viewJSON](t, w)
	assert.Equal(t, "q2-it", v.NextID)
	assert.Equal(t, "q2-it", v.Node.ID)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"out of range", `{"current_id":"q1","answer_index":9}`, http.StatusUnprocessableEntity},
		{"negative", `{"current_id":"q1","answer_index":-1}`, http.StatusUnprocessableEntity},
		{"on a result", `{"current_id":"r-web","answer_index":0}`, http.StatusUnprocessableEntity},
		{"unknown node", `{"current_id":"ghost","answer_index":0}`, http.StatusUnprocessableEntity},
		{"missing index", `{"current_id":"q1"}`, http.StatusBadRequest},
		{"missing node", `{"answer_index":0}`, http.StatusBadRequest},
		{"not json", `nope`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/advance", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newServer(t).Handler()

	w := do(t, h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	v := decode[viewJSON](t, w)
	require.NotNil(t, v.Session)
	id := v.Session.ID
	assert.Equal(t, "q1", v.Session.Current)
	assert.Equal(t, "q1", v.Node.ID)

	w = do(t, h, http.MethodPost, "/sessions/"+id+"/answers", `{"answer_index":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, http.MethodPost, "/sessions/"+id+"/answers", `{"answer_index":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	v = decode[viewJSON](t, w)
	assert.Equal(t, "r-web", v.Session.Current)
	assert.True(t, v.Terminal)
	assert.Len(t, v.Session.History, 2)

	w = do(t, h, http.MethodPost, "/sessions/"+id+"/answers", `{"answer_index":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodPost, "/sessions/"+id+"/back", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "q2-it", decode[viewJSON](t, w).Session.Current)

	w = do(t, h, http.MethodGet, "/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "q2-it", decode[viewJSON](t, w).Session.Current)

	w = do(t, h, http.MethodPost, "/sessions/"+id+"/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[viewJSON](t, w).Session.History)

	w = do(t, h, http.MethodPost, "/sessions/"+id+"/back", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/sessions", "")
	assert.Equal(t, []string{id}, decode[[]string](t, w))

	w = do(t, h, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, h, http.MethodPost, "/sessions/"+id+"/answers", `{"answer_index":0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGraph(t *testing.T) {
	h := newServer(t).Handler()

	w := do(t, h, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	assert.NotContains(t, w.Body.String(), "classDef current")

	w = do(t, h, http.MethodPost, "/sessions", "")
	id := decode[viewJSON](t, w).Session.ID
	do(t, h, http.MethodPost, "/sessions/"+id+"/answers", `{"answer_index":1}`)

	w = do(t, h, http.MethodGet, "/graph?session_id="+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "class q2_it current")

	w = do(t, h, http.MethodGet, "/graph?session_id=ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	c := metrics.New()
	eng, err := shindan.New(shindan.WithLifecycleHooks(c.Hooks()))
	require.NoError(t, err)
	h := shindanhttp.NewHandler(eng, shindanhttp.WithMetrics(c.Handler()))

	do(t, h, http.MethodPost, "/advance", `{"current_id":"q1","answer_index":9}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `shindan_usage_errors_total{reason="answer_out_of_range"} 1`)
}

func TestCORS(t *testing.T) {
	w := do(t, newServer(t).Handler(), http.MethodOptions, "/advance", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// readEvent returns the next "data:" payload from an SSE stream.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func openStream(t *testing.T, ctx context.Context, url string) *bufio.Reader {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	require.Equal(t, "connected", readEvent(t, r))
	return r
}

func TestSubscribeEvents_Session(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	var created struct {
		Session struct{ ID string } `json:"session"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	id := created.Session.ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := openStream(t, ctx, srv.URL+"/events?session_id="+id)

	resp, err = http.Post(srv.URL+"/sessions/"+id+"/answers", "application/json", bytes.NewBufferString(`{"answer_index":0}`))
	require.NoError(t, err)
	resp.Body.Close()

	var event struct {
		Session struct{ Current string } `json:"session"`
	}
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, stream)), &event))
	assert.Equal(t, "q2-biz", event.Session.Current)

	resp, err = http.Get(srv.URL + "/events?session_id=ghost")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscribeEvents_Reload(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := openStream(t, ctx, srv.URL+"/events")

	s.NotifyReload()
	assert.JSONEq(t, `{"type":"reload","entry":"q1","nodes":26}`, readEvent(t, stream))
}

func TestStreamManager(t *testing.T) {
	sm := shindanhttp.NewStreamManager(logging.NewNop())
	ch, unsubscribe := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", "hello")
	sm.Broadcast("s2", "ignored")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", "flood")
	}
	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, sm.Subscribers("s1"))

	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, 10, n)
}
