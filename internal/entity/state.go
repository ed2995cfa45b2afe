package entity

// State is everything the page renders. It changes only through the
// controller operations.
type State struct {
	SelectedImage *Image `json:"selected_image,omitempty"`
	Preview       string `json:"preview,omitempty"`
	Description   string `json:"description"`
	Error         string `json:"error"`
	Busy          bool   `json:"busy"`
}

// HasImage reports whether an image is currently selected.
func (s State) HasImage() bool {
	return s.SelectedImage != nil
}

// CanGenerate mirrors the enabled state of the generate button.
func (s State) CanGenerate() bool {
	return s.HasImage() && !s.Busy
}

// StateResponse is the JSON view of State. Image bytes are never echoed back.
type StateResponse struct {
	ImageName   string `json:"image_name,omitempty"`
	MediaType   string `json:"media_type,omitempty"`
	Preview     string `json:"preview,omitempty"`
	Description string `json:"description"`
	Error       string `json:"error"`
	Busy        bool   `json:"busy"`
	CanGenerate bool   `json:"can_generate"`
}

func NewStateResponse(s State) StateResponse {
	resp := StateResponse{
		Preview:     s.Preview,
		Description: s.Description,
		Error:       s.Error,
		Busy:        s.Busy,
		CanGenerate: s.CanGenerate(),
	}
	if s.SelectedImage != nil {
		resp.ImageName = s.SelectedImage.Name
		resp.MediaType = s.SelectedImage.MediaType
	}
	return resp
}
