package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ds124wfegd/imagecaption/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type pageView struct {
	State   entity.StateResponse
	Notice  string
	Copied  bool
	Refresh int
}

// Page renders the single page. Form posts below redirect back here; any
// user-facing error travels in the state.
func (h *CaptionHandler) Page(c *gin.Context) {
	h.renderPage(c, http.StatusOK, "", c.Query("copied") == "1")
}

func (h *CaptionHandler) PageUpload(c *gin.Context) {
	img, err := h.readUpload(c)
	if err != nil {
		c.Error(err)
		if errors.Is(err, entity.ErrImageTooLarge) {
			h.renderPage(c, http.StatusRequestEntityTooLarge, "Image is too large. Please choose a smaller file.", false)
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if _, err := h.service.SelectImage(c.Request.Context(), middleware.SessionID(c), img); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *CaptionHandler) PageGenerate(c *gin.Context) {
	if _, err := h.service.GenerateDescription(c.Request.Context(), middleware.SessionID(c), false); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *CaptionHandler) PageCopy(c *gin.Context) {
	if _, err := h.service.CopyDescription(c.Request.Context(), middleware.SessionID(c)); err != nil {
		c.Error(err)
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, "/?copied=1")
}

func (h *CaptionHandler) PageClear(c *gin.Context) {
	if _, err := h.service.Reset(c.Request.Context(), middleware.SessionID(c)); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *CaptionHandler) renderPage(c *gin.Context, status int, notice string, copied bool) {
	state, err := h.service.State(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.Error(err)
		c.String(statusFor(err), err.Error())
		return
	}

	c.HTML(status, "index.html", pageView{
		State:   entity.NewStateResponse(state),
		Notice:  notice,
		Copied:  copied,
		Refresh: h.refreshSeconds,
	})
}
