package entity

import "errors"

// Messages shown to the user in the error banner.
const (
	MsgInvalidImage     = "Please select a valid image file."
	MsgNoImage          = "Please upload an image first."
	MsgGenerationFailed = "Failed to generate description. Please try again."
	MsgPreviewFailed    = "Failed to load image preview. Please try another file."
)

var (
	// Controller errors
	ErrInvalidImage     = errors.New("file is not an image")
	ErrNoImage          = errors.New("no image selected")
	ErrBusy             = errors.New("description generation already in progress")
	ErrGenerationFailed = errors.New("description generation failed")
	ErrPreviewFailed    = errors.New("preview derivation failed")
	ErrStaleGeneration  = errors.New("generation result discarded")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrImageTooLarge   = errors.New("image exceeds upload limit")
)
