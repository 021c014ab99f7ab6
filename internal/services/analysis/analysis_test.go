package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/models"
)

type fakeBackend struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls int
	seen  models.Still
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Infer(ctx context.Context, still models.Still) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = still
	return f.body, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		WorkerID:             "test",
		AITimeout:            time.Second,
		AIRetryBackoffMax:    0,
		MaxAnalysisDimension: 2048,
		AnalysisJPEGQuality:  90,
	}
}

func TestParseDetections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "empty body", body: "", want: 0},
		{name: "whitespace", body: "  \n", want: 0},
		{name: "empty array", body: "[]", want: 0},
		{name: "valid", body: `[{"label":"人","confidence":0.9,"box_2d":{"ymin":10,"xmin":20,"ymax":30,"xmax":40}}]`, want: 1},
		{name: "envelope", body: `{"detections":[{"label":"car","confidence":0.5,"box_2d":{"ymin":1,"xmin":2,"ymax":3,"xmax":4}}]}`, want: 1},
		{name: "zero confidence is present", body: `[{"label":"x","confidence":0,"box_2d":{"ymin":0,"xmin":0,"ymax":0,"xmax":0}}]`, want: 1},
		{name: "missing label", body: `[{"confidence":0.9,"box_2d":{"ymin":10,"xmin":20,"ymax":30,"xmax":40}}]`, wantErr: true},
		{name: "empty label", body: `[{"label":"","confidence":0.9,"box_2d":{"ymin":10,"xmin":20,"ymax":30,"xmax":40}}]`, wantErr: true},
		{name: "missing coordinate", body: `[{"label":"x","confidence":0.9,"box_2d":{"ymin":10,"xmin":20,"ymax":30}}]`, wantErr: true},
		{name: "missing box", body: `[{"label":"x","confidence":0.9}]`, wantErr: true},
		{name: "not json", body: `sorry, I cannot help`, wantErr: true},
		{name: "wrong type", body: `[{"label":"x","confidence":"high","box_2d":{"ymin":1,"xmin":1,"ymax":1,"xmax":1}}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDetections([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseDetectionsNormalizes(t *testing.T) {
	got, err := parseDetections([]byte(`[{"label":"dog","confidence":1.7,"box_2d":{"ymin":10.4,"xmin":20.6,"ymax":300,"xmax":400}}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, models.DetectionObject{
		Label:      "dog",
		Confidence: 1,
		Box:        models.BoundingBox{YMin: 10, XMin: 21, YMax: 300, XMax: 400},
	}, got[0])
}

func TestGatewayDetect(t *testing.T) {
	backend := &fakeBackend{body: []byte(`[{"label":"cat","confidence":0.8,"box_2d":{"ymin":1,"xmin":2,"ymax":3,"xmax":4}}]`)}
	gw := NewGateway(testConfig(), backend)

	dets, err := gw.Detect(context.Background(), models.Still{Data: []byte("raw"), MIME: "image/jpeg"})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "cat", dets[0].Label)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, []byte("raw"), backend.seen.Data, "undecodable stills are forwarded unchanged")
}

func TestGatewayMalformedIsZeroDetections(t *testing.T) {
	backend := &fakeBackend{body: []byte(`{"oops": true`)}
	gw := NewGateway(testConfig(), backend)

	dets, err := gw.Detect(context.Background(), models.Still{Data: []byte("raw")})
	require.NoError(t, err)
	assert.NotNil(t, dets)
	assert.Empty(t, dets)
}

func TestGatewayBackendErrorIsAnalysisError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("401 unauthorized")}
	gw := NewGateway(testConfig(), backend)

	_, err := gw.Detect(context.Background(), models.Still{Data: []byte("raw")})
	require.Error(t, err)

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "401 unauthorized")
}

func TestGatewayBackoffFailsFast(t *testing.T) {
	cfg := testConfig()
	cfg.AIRetryBackoffMax = time.Minute
	backend := &fakeBackend{err: errors.New("down")}
	gw := NewGateway(cfg, backend)

	_, err := gw.Detect(context.Background(), models.Still{Data: []byte("raw")})
	require.Error(t, err)

	_, err = gw.Detect(context.Background(), models.Still{Data: []byte("raw")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackoff)
	assert.Equal(t, 1, backend.calls, "second request must not reach the backend")
}

func TestFailureBackoffWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	b := newFailureBackoff(4 * time.Second)
	b.now = func() time.Time { return now }

	assert.True(t, b.shouldRetry())

	b.recordFailure()
	assert.False(t, b.shouldRetry())
	now = now.Add(time.Second)
	assert.True(t, b.shouldRetry())

	b.recordFailure()
	b.recordFailure()
	b.recordFailure()
	now = now.Add(3 * time.Second)
	assert.False(t, b.shouldRetry())
	now = now.Add(time.Second)
	assert.True(t, b.shouldRetry(), "window is capped at the configured max")

	b.recordSuccess()
	assert.True(t, b.shouldRetry())
}

func TestHTTPBackendInfer(t *testing.T) {
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFile, _ = io.ReadAll(file)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.InferenceURL = srv.URL
	backend := NewHTTPBackend(cfg)

	body, err := backend.Infer(context.Background(), models.Still{Data: []byte("jpeg-bytes"), MIME: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), gotFile)
	assert.JSONEq(t, `{"detections":[]}`, string(body))
}

func TestHTTPBackendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.InferenceURL = srv.URL
	backend := NewHTTPBackend(cfg)

	_, err := backend.Infer(context.Background(), models.Still{Data: []byte("x")})
	assert.Error(t, err)
	assert.Error(t, backend.CheckHealth(context.Background()))
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), testConfig())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestDetectionSchemaShape(t *testing.T) {
	s := detectionSchema("English")
	require.NotNil(t, s.Items)
	assert.ElementsMatch(t, []string{"label", "confidence", "box_2d"}, s.Items.Required)
	assert.ElementsMatch(t, []string{"ymin", "xmin", "ymax", "xmax"}, s.Items.Properties["box_2d"].Required)
	assert.Contains(t, systemInstruction("English"), "0-1000")
}
