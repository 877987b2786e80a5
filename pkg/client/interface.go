package client

import "context"

// VisionClient sends a prompt plus a base64-encoded image to a vision model
// backend and returns the raw text response. Parsing is the caller's job.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
