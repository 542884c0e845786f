package api

import (
	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/preview"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type imagePayload struct {
	Image    string               `json:"image"`
	Metadata domain.ImageMetadata `json:"metadata"`
}

type conversionResponse struct {
	Success bool         `json:"success"`
	Result  imagePayload `json:"result"`
}

type metadataResponse struct {
	Success  bool                 `json:"success"`
	Metadata domain.ImageMetadata `json:"metadata"`
}

type previewPayload struct {
	Image     string               `json:"image"`
	Metadata  domain.ImageMetadata `json:"metadata"`
	Converted bool                 `json:"converted"`
	Browser   preview.Browser      `json:"browser,omitempty"`
}

type previewResponse struct {
	Success bool           `json:"success"`
	Result  previewPayload `json:"result"`
}

type batchResponse struct {
	Success bool                      `json:"success"`
	Results []domain.ConversionResult `json:"results"`
}

type usageResponse struct {
	Success bool               `json:"success"`
	Usage   domain.UsageTotals `json:"usage"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Version   string `json:"version"`
	Engine    string `json:"engine,omitempty"`
	Timestamp string `json:"timestamp"`
}

func newConversionResponse(result domain.ConversionResult) conversionResponse {
	return conversionResponse{
		Success: true,
		Result: imagePayload{
			Image:    result.Image,
			Metadata: *result.Metadata,
		},
	}
}
