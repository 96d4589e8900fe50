package port

import (
	"context"
	"time"
)

// ExportArchive keeps a server-side copy of every generated export
type ExportArchive interface {
	// Archive stores content under the day of at and returns where it went
	Archive(ctx context.Context, at time.Time, name string, content []byte) (string, error)
}
