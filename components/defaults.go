package components

import (
	"github.com/klauspost/compress/gzip"
	"github.com/relloyd/pgshift/aws/s3"
	c "github.com/relloyd/pgshift/constants"
)

// Defaults are used by components when their config leaves a setting empty.
var Defaults = struct {
	Delimiter        string
	CompressionLevel int
	ACL              string
}{
	Delimiter:        c.ExportDelimiter,
	CompressionLevel: gzip.DefaultCompression,
	ACL:              s3.ACLAuthenticatedRead,
}
