package domain

import "encoding/base64"

// ConversionResult is either a success carrying the encoded image or a
// failure carrying an error message, never both.
type ConversionResult struct {
	Success  bool           `json:"success"`
	Image    string         `json:"image,omitempty"`
	Metadata *ImageMetadata `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`

	Buffer []byte `json:"-"`
	Err    error  `json:"-"`
}

func Succeeded(buf []byte, meta ImageMetadata) ConversionResult {
	return ConversionResult{
		Success:  true,
		Image:    base64.StdEncoding.EncodeToString(buf),
		Metadata: &meta,
		Buffer:   buf,
	}
}

func Failed(err error) ConversionResult {
	if err == nil {
		err = &Error{Kind: KindInternal, Message: "Conversion failed"}
	}
	return ConversionResult{
		Success: false,
		Error:   Message(err),
		Err:     err,
	}
}
