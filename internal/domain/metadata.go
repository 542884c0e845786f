package domain

// ImageMetadata describes either a source buffer or a conversion output.
// OriginalSize and CompressionRatio are only set for outputs.
type ImageMetadata struct {
	Format           string   `json:"format"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	Size             int      `json:"size"`
	OriginalSize     *int     `json:"originalSize,omitempty"`
	CompressionRatio *float64 `json:"compressionRatio,omitempty"`
}

// CompressionRatio returns the percentage saved going from originalSize to
// size. Growth yields a negative ratio. ok is false when originalSize is zero.
func CompressionRatio(originalSize, size int) (ratio float64, ok bool) {
	if originalSize == 0 {
		return 0, false
	}
	return float64(originalSize-size) / float64(originalSize) * 100, true
}

func (m ImageMetadata) WithOriginalSize(originalSize int) ImageMetadata {
	m.OriginalSize = &originalSize
	m.CompressionRatio = nil
	if ratio, ok := CompressionRatio(originalSize, m.Size); ok {
		m.CompressionRatio = &ratio
	}
	return m
}
