package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/pitchperfect/internal/export"
	"github.com/amishk599/pitchperfect/internal/model"
	"github.com/amishk599/pitchperfect/internal/pipeline"
	"github.com/amishk599/pitchperfect/internal/prompt"
)

// formOverhead is the room left for the text fields on top of the upload
// limit.
const formOverhead = 1 << 20

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was ready.
const statusClientClosedRequest = 499

// Handler holds the dependencies of the API endpoints.
type Handler struct {
	runner         Runner
	defaults       Defaults
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler creates the handler with dependencies.
func NewHandler(runner Runner, defaults Defaults, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		runner:         runner,
		defaults:       defaults,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Health is the GET /health endpoint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Templates is the GET /templates endpoint.
func (h *Handler) Templates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":   h.defaults.Template,
		"templates": prompt.Templates(),
	})
}

// CreateProposal is the POST /proposals endpoint. It returns the sanitized
// proposal as JSON.
func (h *Handler) CreateProposal(c *gin.Context) {
	result, ok := h.generate(c)
	if !ok {
		return
	}
	if c.PostForm("include_prompt") != "true" {
		result.Prompt = ""
	}
	c.JSON(http.StatusOK, result)
}

// DownloadProposal is the POST /proposals/download endpoint. It returns the
// proposal as a text attachment.
func (h *Handler) DownloadProposal(c *gin.Context) {
	result, ok := h.generate(c)
	if !ok {
		return
	}
	filename := c.PostForm("filename")
	if filename == "" {
		filename = h.defaults.Filename
	}
	c.Header("Content-Disposition", export.ContentDisposition(filename))
	c.Data(http.StatusOK, export.MediaType(filename), []byte(result.Proposal+"\n"))
}

// generate parses the form and runs the pipeline. On failure it writes the
// error response and returns false.
func (h *Handler) generate(c *gin.Context) (*model.GenerationResult, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+formOverhead)

	in, err := h.parseInput(c)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}

	result, err := h.runner.Run(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return result, true
}

func (h *Handler) parseInput(c *gin.Context) (pipeline.Input, error) {
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pipeline.Input{}, fmt.Errorf("read form: %w", model.ErrDocumentTooLarge)
		}
		return pipeline.Input{}, fmt.Errorf("%w: malformed form: %v", model.ErrInvalidInput, err)
	}

	in := pipeline.Input{
		JobText:     c.PostForm("job_text"),
		Profile:     h.defaults.Profile,
		Template:    h.defaults.Template,
		Urgency:     h.defaults.Urgency,
		MatchSkills: h.defaults.MatchSkills,
	}

	doc, err := h.readUpload(c)
	if err != nil {
		return pipeline.Input{}, err
	}
	in.Document = doc

	// A field present in the form overrides the default, even when empty.
	if v, ok := c.GetPostForm("name"); ok {
		in.Profile.Name = v
	}
	if v, ok := c.GetPostForm("title"); ok {
		in.Profile.Title = v
	}
	if v, ok := c.GetPostForm("skills"); ok {
		in.Profile.Skills = model.ParseSkills(v)
	}
	if v, ok := c.GetPostForm("experience"); ok {
		in.Profile.Experience = v
	}
	if v, ok := c.GetPostForm("achievements"); ok {
		in.Profile.Achievements = v
	}
	if v, ok := c.GetPostForm("tone"); ok {
		in.Profile.Tone = model.Tone(v)
	}
	if v, ok := c.GetPostForm("availability"); ok {
		in.Profile.Availability = model.Availability(v)
	}
	if v := c.PostForm("word_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("%w: word_count must be a whole number", model.ErrInvalidInput)
		}
		in.Profile.WordCount = n
	}
	if v := c.PostForm("template"); v != "" {
		in.Template = model.TemplateID(v)
	}
	if v := c.PostForm("urgency"); v != "" {
		in.Urgency = model.Urgency(v)
		if in.Urgency != model.UrgencyStandard && in.Urgency != model.UrgencyUrgent {
			return pipeline.Input{}, fmt.Errorf("%w: urgency must be standard or urgent", model.ErrInvalidInput)
		}
	}
	if v := c.PostForm("match_skills"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return pipeline.Input{}, fmt.Errorf("%w: match_skills must be true or false", model.ErrInvalidInput)
		}
		in.MatchSkills = b
	}

	return in, nil
}

// readUpload returns the uploaded job file, or nil when there is none. A
// file with an unrecognized extension counts as no upload.
func (h *Handler) readUpload(c *gin.Context) (*model.SourceDocument, error) {
	fh, err := c.FormFile("job_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read job_file: %v", model.ErrInvalidInput, err)
	}

	format, ok := model.FormatFromFilename(fh.Filename)
	if !ok {
		h.logger.Info("ignoring upload with unsupported extension",
			"request_id", c.GetString("request_id"),
			"filename", fh.Filename,
		)
		return nil, nil
	}
	if fh.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("upload %s: %w", fh.Filename, model.ErrDocumentTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("upload %s: %w", fh.Filename, model.ErrDocumentTooLarge)
	}

	return &model.SourceDocument{Name: fh.Filename, Format: format, Data: data}, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	kind := model.ErrorKind(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", c.GetString("request_id"), "kind", kind, "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": model.UserMessage(err),
		"kind":  kind,
	})
}

// statusFor maps an error to the HTTP status returned to the client.
func statusFor(err error) int {
	if isTimeout(err) {
		return http.StatusGatewayTimeout
	}
	switch model.ErrorKind(err) {
	case "cancelled":
		return statusClientClosedRequest
	case "empty_input", "invalid_input":
		return http.StatusBadRequest
	case "too_large":
		return http.StatusRequestEntityTooLarge
	case "unsupported_format", "corrupt_document":
		return http.StatusUnprocessableEntity
	case "service_error", "malformed_response", "transport_error":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
