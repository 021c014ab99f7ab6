package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genai-yolo-go/internal/api/handlers"
	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/models"
	"genai-yolo-go/internal/services"
	"genai-yolo-go/internal/services/analysis"
	"genai-yolo-go/internal/services/media"
	"genai-yolo-go/internal/session"
)

const catPayload = `[{"label":"cat","confidence":0.88,"box_2d":{"ymin":100,"xmin":200,"ymax":300,"xmax":400}}]`

type stubBackend struct {
	mu    sync.Mutex
	body  string
	calls int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Infer(ctx context.Context, still models.Still) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return []byte(b.body), nil
}

type noFrames struct{}

func (noFrames) Capture(ctx context.Context, source string, positionMs int64) (models.Still, error) {
	return models.Still{}, session.ErrNoMedia
}

func newTestServer(t *testing.T) (*Server, *stubBackend) {
	t.Helper()

	cfg := &config.Config{
		WorkerID:            "test-worker",
		Version:             "test",
		DetectorBackend:     "stub",
		MediaDir:            t.TempDir(),
		MaxUploadBytes:      1 << 20,
		MaxSessions:         4,
		AnalysisJPEGQuality: 90,
		AITimeout:           time.Second,
		WSPingInterval:      time.Second,
		WSWriteTimeout:      time.Second,
		ShutdownTimeout:     time.Second,
	}

	store, err := media.NewStore(cfg)
	require.NoError(t, err)

	backend := &stubBackend{body: catPayload}
	gateway := analysis.NewGateway(cfg, backend)
	container := &services.ServiceContainer{
		Config:     cfg,
		Backend:    backend,
		Gateway:    gateway,
		MediaStore: store,
		Sessions:   session.NewManager(cfg, gateway, noFrames{}, store, nil),
	}

	srv := NewServer(cfg, container)
	t.Cleanup(func() {
		_ = container.Shutdown(context.Background())
	})
	return srv, backend
}

func doJSON(t *testing.T, srv *Server, method, path string, body []byte, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func upload(t *testing.T, srv *Server, sessionID, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	var snap models.Snapshot
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/sessions", nil, &snap))
	assert.Equal(t, models.PhaseEmpty, snap.Phase)
	return snap.SessionID
}

func waitForPhase(t *testing.T, srv *Server, id string, phase models.Phase) models.Snapshot {
	t.Helper()
	var snap models.Snapshot
	require.Eventually(t, func() bool {
		snap = models.Snapshot{}
		doJSON(t, srv, http.MethodGet, "/sessions/"+id, nil, &snap)
		return snap.Phase == phase
	}, 2*time.Second, 10*time.Millisecond)
	return snap
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	var health handlers.HealthResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "unchecked", health.Detector)

	var info handlers.WorkerInfoResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/", nil, &info))
	assert.Equal(t, "stub", info.Backend)
	assert.Equal(t, "test-worker", info.WorkerID)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestImageUploadFlow(t *testing.T) {
	srv, backend := newTestServer(t)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "photo.bin", pngBytes(t, 64, 48))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, models.MediaKindImage, snap.MediaKind)
	assert.Equal(t, "image/png", snap.MIME)

	snap = waitForPhase(t, srv, id, models.PhaseReady)
	require.Len(t, snap.Detections, 1)
	assert.Equal(t, "cat", snap.Detections[0].Label)
	assert.Equal(t, 1, snap.Summary.Total)
	assert.Equal(t, 1, snap.Summary.HighConfidence)

	backend.mu.Lock()
	assert.Equal(t, 1, backend.calls)
	backend.mu.Unlock()

	var ov handlers.OverlayResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/sessions/"+id+"/overlay", nil, &ov))
	assert.Equal(t, 64, ov.Geometry.Width)
	assert.Equal(t, 48, ov.Geometry.Height)
	require.Len(t, ov.Annotations, 1)
	assert.Equal(t, "cat 88%", ov.Annotations[0].Chip.Text)
	assert.InDelta(t, 10.0, ov.Annotations[0].Box.TopPct, 1e-9)
	assert.InDelta(t, 20.0, ov.Annotations[0].Box.LeftPct, 1e-9)

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/sessions/"+id+"/overlay?width=500&height=250", nil, &ov))
	assert.Equal(t, 500, ov.Geometry.Width)
	assert.Equal(t, 100, ov.Annotations[0].Pixels.X)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/annotated.jpg", nil)
	out := httptest.NewRecorder()
	srv.Handler().ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "image/jpeg", out.Header().Get("Content-Type"))
	_, format, err := image.DecodeConfig(bytes.NewReader(out.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	req = httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/media", nil)
	out = httptest.NewRecorder()
	srv.Handler().ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "image/png", out.Header().Get("Content-Type"))

	// Frames only exist for video
	code := doJSON(t, srv, http.MethodPost, "/sessions/"+id+"/frames", []byte(`{"position_ms":0}`), nil)
	assert.Equal(t, http.StatusConflict, code)

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodDelete, "/sessions/"+id+"/media", nil, &snap))
	assert.Equal(t, models.PhaseEmpty, snap.Phase)
	assert.Empty(t, snap.Detections)

	code = doJSON(t, srv, http.MethodGet, "/sessions/"+id+"/annotated.jpg", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEmptyDetectionsAreReady(t *testing.T) {
	srv, backend := newTestServer(t)
	backend.body = ""
	id := createSession(t, srv)

	require.Equal(t, http.StatusOK, upload(t, srv, id, "a.png", pngBytes(t, 8, 8)).Code)
	snap := waitForPhase(t, srv, id, models.PhaseReady)
	assert.NotNil(t, snap.Detections)
	assert.Empty(t, snap.Detections)
}

func TestUploadRejectsUnsupportedMedia(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "notes.png", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	var snap models.Snapshot
	doJSON(t, srv, http.MethodGet, "/sessions/"+id, nil, &snap)
	assert.Equal(t, models.PhaseEmpty, snap.Phase)
}

func TestUploadTooLarge(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	rec := upload(t, srv, id, "big.png", bytes.Repeat([]byte{0x89}, 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	code := doJSON(t, srv, http.MethodPost, "/sessions/"+id+"/media", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/sessions/nope", "/sessions/nope/overlay", "/sessions/nope/annotated.jpg", "/sessions/nope/ws"} {
		var resp handlers.ErrorResponse
		assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, path, nil, &resp), path)
		assert.NotEmpty(t, resp.Error)
	}
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodDelete, "/sessions/nope", nil, nil))
}

func TestFramesRequireMedia(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	assert.Equal(t, http.StatusConflict, doJSON(t, srv, http.MethodPost, "/sessions/"+id+"/frames", []byte(`{"position_ms":100}`), nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodPost, "/sessions/"+id+"/frames", []byte(`{"position_ms":-5}`), nil))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/sessions/"+id+"/frame?position_ms=abc", nil, nil))
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	a := createSession(t, srv)
	b := createSession(t, srv)

	var list []models.Snapshot
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/sessions", nil, &list))
	require.Len(t, list, 2)

	var ok handlers.SuccessResponse
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodDelete, "/sessions/"+a, nil, &ok))
	assert.True(t, ok.Success)

	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/sessions", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, b, list[0].SessionID)

	var snap models.Snapshot
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/sessions/"+b+"/error/dismiss", nil, &snap))
	assert.Equal(t, models.PhaseEmpty, snap.Phase)
}

func TestSessionLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	for i := 0; i < 4; i++ {
		createSession(t, srv)
	}
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, srv, http.MethodPost, "/sessions", nil, nil))
}

func TestSystemStats(t *testing.T) {
	srv, _ := newTestServer(t)
	createSession(t, srv)

	var body struct {
		Success bool                   `json:"success"`
		Stats   map[string]interface{} `json:"stats"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/system/stats", nil, &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 1, body.Stats["sessions"])
	assert.Equal(t, false, body.Stats["nats_connected"])
}

func TestWebSocketPushesSnapshots(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createSession(t, srv)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readSnapshot := func() models.Snapshot {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg handlers.SnapshotMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "snapshot", msg.Type)
		return msg.Session
	}

	first := readSnapshot()
	assert.Equal(t, id, first.SessionID)
	assert.Equal(t, models.PhaseEmpty, first.Phase)

	require.Equal(t, http.StatusOK, upload(t, srv, id, "a.png", pngBytes(t, 16, 16)).Code)

	var last models.Snapshot
	for last.Phase != models.PhaseReady {
		next := readSnapshot()
		assert.Greater(t, next.Revision, last.Revision)
		last = next
	}
	assert.Len(t, last.Detections, 1)
}
