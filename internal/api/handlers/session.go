package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/helpers"
	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/models"
	"genai-yolo-go/internal/overlay"
	"genai-yolo-go/internal/services/analysis"
	"genai-yolo-go/internal/services/framesampler"
	"genai-yolo-go/internal/services/media"
	"genai-yolo-go/internal/session"
)

type SessionHandler struct {
	cfg      *config.Config
	sessions *session.Manager
}

func NewSessionHandler(cfg *config.Config, sessions *session.Manager) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		sessions: sessions,
	}
}

// FrameRequest asks for analysis of the video frame at the client's playback position
type FrameRequest struct {
	PositionMs int64 `json:"position_ms" binding:"min=0" example:"1500"`
}

// OverlayResponse carries the draw instructions for a session's detections
type OverlayResponse struct {
	SessionID   string               `json:"session_id"`
	Revision    uint64               `json:"revision"`
	Geometry    overlay.Geometry     `json:"geometry"`
	Annotations []overlay.Annotation `json:"annotations"`
}

// CreateSession godoc
// @Summary Create a session
// @Description Create an empty media session
// @Tags sessions
// @Produce json
// @Success 201 {object} models.Snapshot
// @Failure 503 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	s, err := h.sessions.Create()
	if err != nil {
		h.fail(c, err)
		return
	}
	logging.SetSession(c, s.ID())
	logging.Info(c).Msg("Session created")
	c.JSON(http.StatusCreated, s.Snapshot())
}

// ListSessions godoc
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Success 200 {array} models.Snapshot
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.List())
}

// GetSession godoc
// @Summary Get a session
// @Description Current phase, detections and summary of a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Snapshot
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteSession godoc
// @Summary Delete a session
// @Description Release the session's media and forget it
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	logging.SetSession(c, id)
	if err := h.sessions.Remove(id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "session closed"})
}

// UploadMedia godoc
// @Summary Select media
// @Description Upload an image or video. Images are analyzed immediately; videos wait for frame requests.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "JPEG, PNG, WebP, MP4 or WebM file"
// @Success 200 {object} models.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /sessions/{id}/media [post]
func (h *SessionHandler) UploadMedia(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read file"})
		return
	}

	m, err := media.Validate(data, fileHeader.Filename)
	if err != nil {
		logging.Warn(c).Err(err).Str("filename", fileHeader.Filename).Msg("Rejected upload")
		h.fail(c, err)
		return
	}

	if err := s.SelectMedia(m); err != nil {
		h.fail(c, err)
		return
	}

	logging.Info(c).
		Str("media_kind", string(m.Kind)).
		Str("mime", m.MIME).
		Int("bytes", len(data)).
		Msg("Media uploaded")

	c.JSON(http.StatusOK, s.Snapshot())
}

// ClearMedia godoc
// @Summary Clear media
// @Description Release the media and reset the session to empty
// @Tags media
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Snapshot
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/media [delete]
func (h *SessionHandler) ClearMedia(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.Reset()
	c.JSON(http.StatusOK, s.Snapshot())
}

// ServeMedia godoc
// @Summary Serve media
// @Description Stream the session's current media file (supports range requests)
// @Tags media
// @Produce octet-stream
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/media [get]
func (h *SessionHandler) ServeMedia(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	path, mime, err := s.MediaFile()
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", mime)
	c.File(path)
}

// CaptureFrame godoc
// @Summary Capture a video frame
// @Description Return the frame at a playback position as JPEG without analyzing it
// @Tags frames
// @Produce jpeg
// @Param id path string true "Session ID"
// @Param position_ms query int false "Playback position in milliseconds"
// @Success 200 {file} binary
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/frame [get]
func (h *SessionHandler) CaptureFrame(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	position, err := strconv.ParseInt(c.DefaultQuery("position_ms", "0"), 10, 64)
	if err != nil || position < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "position_ms must be a non-negative integer"})
		return
	}

	still, err := s.CaptureFrame(c.Request.Context(), position)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, still.MIME, still.Data)
}

// AnalyzeFrame godoc
// @Summary Analyze a video frame
// @Description Capture the frame at the client's playback position and start an analysis cycle
// @Tags frames
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body FrameRequest true "Playback position"
// @Success 202 {object} models.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/frames [post]
func (h *SessionHandler) AnalyzeFrame(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req FrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Error(c).Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.AnalyzeFrame(c.Request.Context(), req.PositionMs); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, s.Snapshot())
}

// DismissError godoc
// @Summary Dismiss the error notice
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.Snapshot
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/error/dismiss [post]
func (h *SessionHandler) DismissError(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.DismissError()
	c.JSON(http.StatusOK, s.Snapshot())
}

// GetOverlay godoc
// @Summary Overlay draw instructions
// @Description Boxes, colors and label chips for the current detections, projected onto width x height
// @Tags overlay
// @Produce json
// @Param id path string true "Session ID"
// @Param width query int false "Displayed media width in pixels"
// @Param height query int false "Displayed media height in pixels"
// @Success 200 {object} OverlayResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/overlay [get]
func (h *SessionHandler) GetOverlay(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	geom := overlay.Geometry{Width: models.NormalizedScale, Height: models.NormalizedScale}
	if still, _, err := s.LastResult(); err == nil {
		w, h := still.Width, still.Height
		if w == 0 || h == 0 {
			w, h, _ = helpers.StillDimensions(still.Data)
		}
		if w > 0 && h > 0 {
			geom = overlay.Geometry{Width: w, Height: h}
		}
	}

	var err error
	if geom.Width, err = queryDimension(c, "width", geom.Width); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if geom.Height, err = queryDimension(c, "height", geom.Height); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	snap := s.Snapshot()
	c.JSON(http.StatusOK, OverlayResponse{
		SessionID:   snap.SessionID,
		Revision:    snap.Revision,
		Geometry:    geom,
		Annotations: overlay.Render(snap.Detections, geom),
	})
}

// GetAnnotated godoc
// @Summary Annotated still
// @Description The last analyzed still with the overlay drawn onto it
// @Tags overlay
// @Produce jpeg
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/annotated.jpg [get]
func (h *SessionHandler) GetAnnotated(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	still, detections, err := s.LastResult()
	if err != nil {
		h.fail(c, err)
		return
	}

	data, err := overlay.AnnotateImage(still.Data, detections, h.cfg.AnalysisJPEGQuality)
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to annotate still")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to render annotated still"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	id := c.Param("id")
	logging.SetSession(c, id)

	s, err := h.sessions.Get(id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

// fail maps domain errors onto HTTP statuses
func (h *SessionHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error(c).Err(err).Msg("Request failed")
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var validationErr *media.ValidationError
	var analysisErr *analysis.AnalysisError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrNoResult):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAnalysisInFlight),
		errors.Is(err, session.ErrNoMedia),
		errors.Is(err, session.ErrNotVideo),
		errors.Is(err, session.ErrMediaChanged):
		return http.StatusConflict
	case errors.Is(err, framesampler.ErrNoFrame):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, session.ErrTooManySessions), errors.Is(err, session.ErrManagerShutdown):
		return http.StatusServiceUnavailable
	case errors.As(err, &analysisErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func queryDimension(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return v, nil
}
