// Package images wraps the external image hosting service. Uploads happen
// before an issue is persisted; a failed upload surfaces to the caller and
// never leaves a partial record behind.
package images

import (
	"context"
	"io"
)

// Store is the image hosting collaborator interface.
type Store interface {
	Upload(ctx context.Context, fileName string, content io.Reader) (url string, err error)
}
