//go:build libheif && cgo && !govips

package pipeline

// Registers the "heif" decoder so the pure-Go codec can probe and decode
// HEIC uploads when libheif is installed.
import _ "github.com/strukturag/libheif/go/heif"
