package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/timmy/gamedata/internal/domain"
)

// Importer runs a synchronous import.
type Importer interface {
	ImportFromURL(ctx context.Context, rawURL string) (*domain.ImportOutcome, error)
}

// TaskQueue runs imports in the background.
type TaskQueue interface {
	Submit(ctx context.Context, rawURL string) (*domain.Task, error)
	GetStatus(ctx context.Context, id string) (*domain.Task, error)
}

// UploadRequest is the body of both upload endpoints.
type UploadRequest struct {
	FileURL string `json:"file_url"`
}

// Validate checks that FileURL is an absolute http(s) URL or s3://bucket/key.
func (r UploadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileURL,
			validation.Required,
			validation.By(sourceScheme),
			validation.When(!strings.HasPrefix(strings.ToLower(r.FileURL), "s3://"), is.RequestURL),
		),
	)
}

func sourceScheme(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return validation.NewError("validation_url_invalid", "must be a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "s3":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return validation.NewError("validation_s3_url", "must be s3://bucket/key")
		}
	default:
		return validation.NewError("validation_url_scheme", "must use http, https or s3")
	}
	return nil
}

// UploadResponse is the body returned by the synchronous upload.
type UploadResponse struct {
	Message                   string            `json:"message"`
	RowsProcessedSuccessfully int               `json:"rows_processed_successfully"`
	RowsCouldNotBeProcessed   int               `json:"rows_could_not_be_processed"`
	Errors                    map[string]string `json:"errors"`
	Status                    domain.TaskState  `json:"status"`
}

// TaskStatusResponse is the body returned by the task status endpoint.
type TaskStatusResponse struct {
	TaskID      string           `json:"task_id"`
	Status      domain.TaskState `json:"status"`
	Message     *string          `json:"message"`
	Result      *UploadResponse  `json:"result"`
	Error       *string          `json:"error"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}

func newUploadResponse(message string, o *domain.ImportOutcome) *UploadResponse {
	return &UploadResponse{
		Message:                   message,
		RowsProcessedSuccessfully: o.SuccessCount,
		RowsCouldNotBeProcessed:   o.FailureCount,
		Errors:                    o.Errors,
		Status:                    o.Status(),
	}
}

// UploadHandler handles CSV upload endpoints.
type UploadHandler struct {
	importer Importer
	tasks    TaskQueue
}

// NewUploadHandler creates a new upload handler.
// Parameters:
//   - importer: synchronous import service.
//   - tasks: background task service.
//
// Returns:
//   - *UploadHandler: initialized handler.
func NewUploadHandler(importer Importer, tasks TaskQueue) *UploadHandler {
	return &UploadHandler{importer: importer, tasks: tasks}
}

func bindUpload(c *gin.Context) (*UploadRequest, bool) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return nil, false
	}
	req.FileURL = strings.TrimSpace(req.FileURL)
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err})
		return nil, false
	}
	return &req, true
}

// Upload handles POST /api/upload_data.
// Completed imports answer 200, partial 207 and failed 400.
func (h *UploadHandler) Upload(c *gin.Context) {
	req, ok := bindUpload(c)
	if !ok {
		return
	}

	outcome, err := h.importer.ImportFromURL(c.Request.Context(), req.FileURL)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	switch outcome.Status() {
	case domain.TaskStatePartiallyCompleted:
		status = http.StatusMultiStatus
	case domain.TaskStateFailed:
		status = http.StatusBadRequest
	}
	c.JSON(status, newUploadResponse(outcome.Message(), outcome))
}

// UploadAsync handles POST /api/upload_data_async.
func (h *UploadHandler) UploadAsync(c *gin.Context) {
	req, ok := bindUpload(c)
	if !ok {
		return
	}

	task, err := h.tasks.Submit(c.Request.Context(), req.FileURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"message": "Added Request to Queue with ID: " + task.ID,
	})
}

// Status handles GET /api/upload_data_async/status/?task_id=.
func (h *UploadHandler) Status(c *gin.Context) {
	id := strings.TrimSpace(c.Query("task_id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'task_id' is required"})
		return
	}

	task, err := h.tasks.GetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TaskStatusResponse{
		TaskID:      task.ID,
		Status:      task.State,
		Error:       task.Error,
		CreatedAt:   task.CreatedAt,
		CompletedAt: task.CompletedAt,
	}
	if task.Result != nil {
		msg := task.Result.Message
		resp.Message = &msg
		if task.Result.Outcome != nil {
			resp.Result = newUploadResponse(msg, task.Result.Outcome)
		}
	}
	c.JSON(http.StatusOK, resp)
}
