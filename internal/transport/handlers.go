package transport

import (
	"github.com/ds124wfegd/imagecaption/internal/service"
)

type CaptionHandler struct {
	service        service.CaptionService
	maxUploadBytes int64
	refreshSeconds int
}

func NewCaptionHandler(service service.CaptionService, maxUploadBytes int64, refreshSeconds int) *CaptionHandler {
	if refreshSeconds <= 0 {
		refreshSeconds = 1
	}
	return &CaptionHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		refreshSeconds: refreshSeconds,
	}
}
