package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/slidedeck"
	slidehttp "github.com/aretw0/slidedeck/pkg/adapters/http"
	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...slidehttp.Option) (*slidehttp.Server, *memory.Store, http.Handler) {
	t.Helper()
	store := memory.NewStore()
	opts = append([]slidehttp.Option{
		slidehttp.WithEditorOptions(
			slidedeck.WithSlideIDs(slidedeck.Counter(1)),
			slidedeck.WithNodeIDs(slidedeck.Counter(1)),
		),
	}, opts...)
	srv := slidehttp.NewServer(store, opts...)
	return srv, store, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPresentation_Contract(t *testing.T) {
	_, _, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/presentation/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doc := domain.DefaultDocument("s1", "n1")
	rec = do(t, h, http.MethodPost, "/presentation/p1", map[string]any{"slides": doc.Slides})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/presentation/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[struct {
		Slides domain.Slides `json:"slides"`
	}](t, rec)
	assert.True(t, domain.EqualNodes(doc.Slides["s1"], got.Slides["s1"]))

	rec = do(t, h, http.MethodDelete, "/presentation/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/presentation/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresentation_RejectsInvalidDecks(t *testing.T) {
	_, _, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/presentation/p1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := domain.Slides{"1": {{ID: "", Type: domain.NodeText}}}
	rec = do(t, h, http.MethodPost, "/presentation/p1", map[string]any{"slides": bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/presentation/p1", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImage_UploadAndServe(t *testing.T) {
	_, _, h := newTestServer(t)
	data := []byte{0x89, 'P', 'N', 'G'}

	rec := do(t, h, http.MethodPost, "/presentation/p1/image", map[string]any{
		"contentType": "image/png",
		"data":        base64.StdEncoding.EncodeToString(data),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	location := decodeBody[map[string]string](t, rec)["location"]
	assert.True(t, strings.HasPrefix(location, "/presentation/p1/image/"))

	rec = do(t, h, http.MethodGet, location, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())

	rec = do(t, h, http.MethodGet, "/presentation/p1/image/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/presentation/p1/image", map[string]any{"contentType": "text/plain", "data": "aGk="})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImage_UploadIsRateLimited(t *testing.T) {
	_, _, h := newTestServer(t, slidehttp.WithUploadRate(0.001, 1))
	body := map[string]any{"contentType": "image/png", "data": "AQID"}

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/presentation/p1/image", body).Code)
	rec := do(t, h, http.MethodPost, "/presentation/p1/image", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestSession_EditingFlow(t *testing.T) {
	_, store, h := newTestServer(t)
	base := "/presentation/p1/session"

	rec := do(t, h, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[slidedeck.State](t, rec)
	require.Len(t, st.Slides, 1)
	require.Len(t, st.Slides[0].Nodes, 1)
	nodeID := st.Slides[0].Nodes[0].ID

	rec = do(t, h, http.MethodPatch, base+"/nodes/"+nodeID+"/move", map[string]float64{"dx": 50, "dy": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeBody[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPatch, base+"/nodes/"+nodeID+"/move", map[string]float64{"dx": 0.5, "dy": 0.5})
	assert.False(t, decodeBody[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPatch, base+"/nodes/missing/move", map[string]float64{"dx": 5})
	assert.False(t, decodeBody[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPost, base+"/undo", nil)
	assert.True(t, decodeBody[map[string]bool](t, rec)["changed"])
	rec = do(t, h, http.MethodPost, base+"/redo", map[string]string{"slideId": string(st.ActiveSlide)})
	assert.True(t, decodeBody[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPost, base+"/nodes", map[string]any{"type": "html", "value": "<b>x</b>", "left": 10, "top": 20})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[domain.Node](t, rec)
	assert.Equal(t, domain.NodeHTML, created.Type)

	rec = do(t, h, http.MethodPatch, base+"/nodes/"+created.ID+"/align", map[string]any{"axis": "horizontal", "extent": 100})
	assert.True(t, decodeBody[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := store.Load(context.Background(), "p1")
	require.NoError(t, err)
	nodes := doc.Slides[st.ActiveSlide]
	require.Len(t, nodes, 2)
	assert.Equal(t, 50.0, nodes[0].Position.Left)
	assert.Equal(t, 430.0, nodes[1].Position.Left)
}

func TestSession_Validation(t *testing.T) {
	_, _, h := newTestServer(t)
	base := "/presentation/p1/session"

	rec := do(t, h, http.MethodPost, base+"/nodes", map[string]any{"type": "video"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, base+"/nodes/1/align", map[string]any{"axis": "diagonal", "extent": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, base+"/nodes/1/resize", map[string]any{"width": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/active", map[string]string{"slideId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/select", map[string]string{"nodeId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/copy", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_SlidesSelectionAndClipboard(t *testing.T) {
	_, _, h := newTestServer(t)
	base := "/presentation/p1/session"

	rec := do(t, h, http.MethodPost, base+"/slides", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	slideID := decodeBody[map[string]string](t, rec)["slideId"]
	require.NotEmpty(t, slideID)

	rec = do(t, h, http.MethodGet, base, nil)
	st := decodeBody[slidedeck.State](t, rec)
	first := st.Slides[0]
	require.Len(t, st.Slides, 2)

	rec = do(t, h, http.MethodPost, base+"/select", map[string]string{"nodeId": first.Nodes[0].ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/copy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clip := decodeBody[map[string]any](t, rec)

	rec = do(t, h, http.MethodPut, base+"/active", map[string]string{"slideId": slideID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/paste", clip)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pasted := decodeBody[domain.Node](t, rec)
	assert.Equal(t, domain.DefaultNodeValue, *pasted.Value)

	rec = do(t, h, http.MethodDelete, base+"/nodes/"+pasted.ID, nil)
	assert.True(t, decodeBody[map[string]bool](t, rec)["changed"])

	rec = do(t, h, http.MethodPost, base+"/deselect", map[string]string{"nodeId": first.Nodes[0].ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestSession_ExternalSaveRefreshesCleanSession(t *testing.T) {
	srv, _, h := newTestServer(t)
	ctx := context.Background()
	ed, err := srv.Sessions.Open(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, ed.Save(ctx))

	rec := do(t, h, http.MethodPost, "/presentation/p1", map[string]any{"slides": domain.DefaultDocument("x", "y").Slides})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.SlideID{"x"}, ed.SlideIDs())

	rec = do(t, h, http.MethodPost, "/presentation/p1/session/load?force=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SlideID("x"), decodeBody[slidedeck.State](t, rec).ActiveSlide)
}

func TestEvents_StreamsSlideDiffs(t *testing.T) {
	_, _, h := newTestServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	// Open the session first so the subscription only sees the move.
	resp, err := http.Get(ts.URL + "/presentation/p1/session")
	require.NoError(t, err)
	st := decodeFrom[slidedeck.State](t, resp)
	nodeID := st.Slides[0].Nodes[0].ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?patientId=p1", nil)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	body, _ := json.Marshal(map[string]float64{"dx": 5, "dy": 5})
	mv, err := http.NewRequest(http.MethodPatch, ts.URL+"/presentation/p1/session/nodes/"+nodeID+"/move", bytes.NewReader(body))
	require.NoError(t, err)
	mvResp, err := http.DefaultClient.Do(mv)
	require.NoError(t, err)
	mvResp.Body.Close()

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var ev struct {
			Type string `json:"type"`
			Diff struct {
				Changed []domain.Node `json:"changed"`
			} `json:"diff"`
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, "commit", ev.Type)
		require.Len(t, ev.Diff.Changed, 1)
		assert.Equal(t, 5.0, ev.Diff.Changed[0].Position.Left)
		return
	}
	t.Fatal("stream ended without a diff event")
}

func TestEvents_RequiresPatient(t *testing.T) {
	_, _, h := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/events", nil).Code)
}

func TestMeta(t *testing.T) {
	_, _, h := newTestServer(t, slidehttp.WithMetrics(observability.NewMetrics("test")))

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]any](t, rec)["status"])

	rec = do(t, h, http.MethodGet, "/info", nil)
	info := decodeBody[map[string]string](t, rec)
	assert.Equal(t, slidedeck.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	rec = do(t, h, http.MethodGet, "/openapi.yaml", nil)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestSpecIsValid(t *testing.T) {
	doc, err := slidehttp.Spec()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/presentation/{patientId}/session/nodes/{nodeId}/move"))
}

func TestCORS(t *testing.T) {
	_, _, h := newTestServer(t, slidehttp.WithCORSOrigins("https://app.example.com"))

	req := httptest.NewRequest(http.MethodOptions, "/presentation/p1", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func decodeFrom[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
