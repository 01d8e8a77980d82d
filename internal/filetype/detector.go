// Package filetype validates uploads by magic bytes rather than trusting
// the client-supplied filename or content type.
package filetype

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Info describes a detected upload.
type Info struct {
	MIMEType  string
	Extension string
	IsPDF     bool
}

// Detect inspects the leading bytes of data and reports what it actually is.
func Detect(data []byte) Info {
	mtype := mimetype.Detect(data)
	info := Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
		IsPDF:     mtype.Is("application/pdf"),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Msg("detected upload type")
	return info
}
