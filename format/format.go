package format

import (
	"encoding"

	"github.com/dhamidi/cif/document"
)

// Encoder writes a parsed document in some output representation.
type Encoder interface {
	encoding.TextMarshaler
	Encode(doc *document.Document) error
}
