package domain

import "encoding/json"

// OCRResult is the structured output of an OCR service for one PDF.
type OCRResult struct {
	Model string    `json:"model,omitempty"`
	Pages []OCRPage `json:"pages"`
}

// OCRPage holds the recognised content of a single page.
type OCRPage struct {
	Index    int        `json:"index"`
	Markdown string     `json:"markdown,omitempty"`
	Text     string     `json:"text,omitempty"`
	Images   []OCRImage `json:"images,omitempty"`
}

// OCRImage is an image embedded in a page.
type OCRImage struct {
	ID string `json:"id,omitempty"`

	// ImageBase64 is either a bare base64 payload or a data URI.
	ImageBase64 string `json:"image_base64,omitempty"`
}

// UnmarshalJSON accepts both the snake_case and camelCase payload keys.
func (i *OCRImage) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string `json:"id"`
		ImageBase64 string `json:"image_base64"`
		CamelBase64 string `json:"imageBase64"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.ID = raw.ID
	i.ImageBase64 = raw.ImageBase64
	if i.ImageBase64 == "" {
		i.ImageBase64 = raw.CamelBase64
	}
	return nil
}
