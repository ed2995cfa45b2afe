package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ds124wfegd/imagecaption/internal/pkg/clipboard"
	"github.com/ds124wfegd/imagecaption/internal/service"
	"github.com/ds124wfegd/imagecaption/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func (h *CaptionHandler) GetState(c *gin.Context) {
	state, err := h.service.State(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.respondError(c, state, err)
		return
	}
	c.JSON(http.StatusOK, entity.NewStateResponse(state))
}

func (h *CaptionHandler) UploadImage(c *gin.Context) {
	img, err := h.readUpload(c)
	if err != nil {
		c.Error(err)
		if errors.Is(err, entity.ErrImageTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	state, err := h.service.SelectImage(c.Request.Context(), middleware.SessionID(c), img)
	if err != nil {
		h.respondError(c, state, err)
		return
	}
	c.JSON(http.StatusOK, entity.NewStateResponse(state))
}

// GenerateDescription answers 202 and settles in the background unless
// ?wait=true is given.
func (h *CaptionHandler) GenerateDescription(c *gin.Context) {
	wait, _ := strconv.ParseBool(c.Query("wait"))

	state, err := h.service.GenerateDescription(c.Request.Context(), middleware.SessionID(c), wait)
	if err != nil {
		h.respondError(c, state, err)
		return
	}

	status := http.StatusOK
	if !wait {
		status = http.StatusAccepted
	}
	c.JSON(status, entity.NewStateResponse(state))
}

func (h *CaptionHandler) CopyDescription(c *gin.Context) {
	text, err := h.service.CopyDescription(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.respondError(c, entity.State{}, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": text})
}

func (h *CaptionHandler) GetClipboard(c *gin.Context) {
	text, err := h.service.Clipboard(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		if errors.Is(err, clipboard.ErrEmpty) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Clipboard is empty"})
			return
		}
		h.respondError(c, entity.State{}, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *CaptionHandler) ClearImage(c *gin.Context) {
	state, err := h.service.Reset(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		h.respondError(c, state, err)
		return
	}
	c.JSON(http.StatusOK, entity.NewStateResponse(state))
}

// respondError sends the user-facing message next to the state it left behind.
func (h *CaptionHandler) respondError(c *gin.Context, state entity.State, err error) {
	c.Error(err)

	message := state.Error
	if message == "" {
		message = err.Error()
	}
	c.JSON(statusFor(err), gin.H{
		"error": message,
		"state": entity.NewStateResponse(state),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidImage), errors.Is(err, entity.ErrNoImage):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrPreviewFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrBusy), errors.Is(err, entity.ErrStaleGeneration):
		return http.StatusConflict
	case errors.Is(err, entity.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entity.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
