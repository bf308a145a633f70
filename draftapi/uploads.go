package draftapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/server"
	"github.com/kbukum/draftkit/upload"
)

// formField is the multipart field files are sent under.
const formField = "files"

// UploadHandler serves POST /v1/uploads, storing the files attached to a
// draft (e.g. images of a form) through an upload.Uploader.
type UploadHandler struct {
	uploader *upload.Uploader
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(u *upload.Uploader) *UploadHandler {
	return &UploadHandler{uploader: u}
}

// Register mounts the route on r.
func (h *UploadHandler) Register(r gin.IRouter) {
	r.POST("/v1/uploads", h.upload)
}

// UploadResult is one entry of the upload response.
type UploadResult struct {
	upload.Result
	Error *errors.ErrorBody `json:"error,omitempty"`
}

func (h *UploadHandler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		server.RespondWithError(c, errors.Validation("Request must be multipart/form-data").WithCause(err))
		return
	}
	headers := form.File[formField]
	if len(headers) == 0 {
		server.RespondWithError(c, errors.MissingField(formField))
		return
	}

	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			server.RespondWithError(c, errors.Internal(err))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			server.RespondWithError(c, errors.Internal(err))
			return
		}
		files = append(files, upload.File{Name: fh.Filename, Data: data})
	}

	results, err := h.uploader.Upload(c.Request.Context(), files)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	out := make([]UploadResult, len(results))
	failed := 0
	for i, r := range results {
		out[i] = UploadResult{Result: r}
		if r.Err != nil {
			failed++
			body := errors.Wrap(r.Err).ToResponse().Error
			out[i].Error = &body
		}
	}
	status := http.StatusCreated
	if failed == len(out) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, server.DataResponse{Data: out, Meta: &server.Meta{Total: len(out)}})
}
