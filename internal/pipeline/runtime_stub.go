//go:build !govips || !cgo

package pipeline

import "log"

func Startup(RuntimeConfig, *log.Logger) error {
	return nil
}

func Shutdown() {}

func Engine() string {
	return "go"
}

func newCodec() (Codec, error) {
	return stdlibCodec{}, nil
}
