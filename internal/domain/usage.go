package domain

import "time"

// UsageLog is the per-conversion accounting record. It never holds image data.
type UsageLog struct {
	ID              string
	Endpoint        string
	RequestID       string
	TargetFormat    string
	PixelsProcessed int64
	BytesIn         int64
	BytesOut        int64
	BytesSaved      int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}

// NewUsageLog derives the byte and pixel counters from a successful result.
// BytesSaved is clamped at zero and ComputeTimeMS at one.
func NewUsageLog(id, endpoint, requestID string, bytesIn int, result ConversionResult, elapsed time.Duration) UsageLog {
	usage := UsageLog{
		ID:            id,
		Endpoint:      endpoint,
		RequestID:     requestID,
		BytesIn:       int64(bytesIn),
		ComputeTimeMS: max(1, elapsed.Milliseconds()),
		CreatedAt:     time.Now().UTC(),
	}
	if result.Metadata != nil {
		usage.TargetFormat = result.Metadata.Format
		usage.PixelsProcessed = int64(result.Metadata.Width) * int64(result.Metadata.Height)
		usage.BytesOut = int64(result.Metadata.Size)
	}
	usage.BytesSaved = max(0, usage.BytesIn-usage.BytesOut)
	return usage
}

// UsageTotals aggregates recorded usage logs.
type UsageTotals struct {
	Conversions     int64 `json:"conversions"`
	PixelsProcessed int64 `json:"pixelsProcessed"`
	BytesIn         int64 `json:"bytesIn"`
	BytesOut        int64 `json:"bytesOut"`
	BytesSaved      int64 `json:"bytesSaved"`
	ComputeTimeMS   int64 `json:"computeTimeMs"`
}

func (t *UsageTotals) Add(usage UsageLog) {
	t.Conversions++
	t.PixelsProcessed += usage.PixelsProcessed
	t.BytesIn += usage.BytesIn
	t.BytesOut += usage.BytesOut
	t.BytesSaved += usage.BytesSaved
	t.ComputeTimeMS += usage.ComputeTimeMS
}
