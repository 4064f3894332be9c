// Package richtext models the node tree of an exported rich-text field
// and walks it into renderable markup plus an ordered list of
// binary-bearing segments.
package richtext

// Node is one element of a rich field's node sequence. The set of
// implementations is closed: *Paragraph and *Table.
type Node interface {
	node()
}

// Paragraph is a single paragraph. It may carry plain text, one
// embedded picture, and/or attachment references, in any combination.
type Paragraph struct {
	Text    string
	Picture *Picture
	Refs    []string // referenced attachment filenames, in document order
}

func (*Paragraph) node() {}

// Table holds ordered rows of ordered cells. Cells are flattened to
// plain text at parse time; binaries inside cells are not carried.
type Table struct {
	Rows [][]string
}

func (*Table) node() {}

// Picture is an embedded raster image.
type Picture struct {
	Format string // source encoding tag, e.g. "png", "gif", "jpeg"
	Data   []byte // decoded bytes; nil when the payload could not be decoded
	Width  int    // pixels, 0 if unknown
	Height int    // pixels, 0 if unknown
}

// RichField is a named field whose value is a node sequence rather
// than scalar text.
type RichField struct {
	Name  string
	Nodes []Node
}

// SegmentKind tags a segment as an inline image or a file attachment.
type SegmentKind string

const (
	KindImage      SegmentKind = "image"
	KindAttachment SegmentKind = "attachment"
)

// Segment is one binary payload extracted from a rich field, plus the
// anchor marking where its content belongs in the rendered body.
type Segment struct {
	AnchorID    string
	Kind        SegmentKind
	Filename    string
	ContentType string
	Data        []byte
	Width       int // images only
	Height      int // images only
	OriginField string
}

// pictureMIME maps supported raster encodings to MIME types.
// Anything else is rendered as an unsupported-image marker.
var pictureMIME = map[string]string{
	"gif":  "image/gif",
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
}

// SupportedPicture reports whether fmt is an encoding segments can carry.
func SupportedPicture(format string) bool {
	_, ok := pictureMIME[format]
	return ok
}
