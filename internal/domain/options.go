package domain

const (
	DefaultQuality = 85

	DefaultPreviewQuality   = 75
	DefaultPreviewMaxWidth  = 1920
	DefaultPreviewMaxHeight = 1080

	DefaultThumbnailSize   = 200
	DefaultThumbnailFormat = FormatWEBP
)

// ConversionOptions configures a single conversion. Zero values select the
// defaults applied by WithDefaults.
type ConversionOptions struct {
	// Format is kept as received; the encoder rejects unknown names.
	Format   string
	Quality  int
	Width    int
	Height   int
	Fit      FitMode
	Optimize *bool
}

func (o ConversionOptions) WithDefaults() ConversionOptions {
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.Fit == "" {
		o.Fit = FitInside
	}
	if o.Optimize == nil {
		o.Optimize = Bool(true)
	}
	return o
}

func (o ConversionOptions) OptimizeEnabled() bool {
	return o.Optimize == nil || *o.Optimize
}

func (o ConversionOptions) HasResize() bool {
	return o.Width > 0 || o.Height > 0
}

// PreviewOptions configures the browser-aware preview. UserAgent is only
// consulted when DetectBrowser is set.
type PreviewOptions struct {
	Quality       int
	MaxWidth      int
	MaxHeight     int
	DetectBrowser bool
	UserAgent     string
}

func (o PreviewOptions) WithDefaults() PreviewOptions {
	if o.Quality <= 0 {
		o.Quality = DefaultPreviewQuality
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultPreviewMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultPreviewMaxHeight
	}
	return o
}

func Bool(v bool) *bool {
	return &v
}
