package deck

import (
	"errors"
	"strings"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// Clipboard MIME types understood by paste, besides image/*.
const (
	MIMEHTML    = "text/html"
	MIMEText    = "text/plain"
	MIMEURIList = "text/uri-list"
)

// ErrNotCopyable is returned when copying a node that stores no value.
var ErrNotCopyable = errors.New("node has no copyable value")

// ErrEmptyClipboard is returned when no clipboard format maps to a node type.
var ErrEmptyClipboard = errors.New("clipboard has no supported format")

// ClipboardFormat is one representation of a clipboard entry.
type ClipboardFormat struct {
	MIMEType string `json:"mimeType" validate:"required"`
	Data     []byte `json:"data"`
}

// Clipboard is what the OS clipboard offered, in any order.
type Clipboard struct {
	Formats []ClipboardFormat `json:"formats" validate:"required,min=1,dive"`
}

// Pick selects the format to paste: image bytes first, then image references, html and
// finally plain text. The returned type is the node type the format becomes.
func (c Clipboard) Pick() (ClipboardFormat, domain.NodeType, error) {
	rank := func(f ClipboardFormat) int {
		mt := strings.ToLower(strings.TrimSpace(f.MIMEType))
		switch {
		case strings.HasPrefix(mt, "image/"):
			return 4
		case mt == MIMEURIList:
			return 3
		case strings.HasPrefix(mt, MIMEHTML):
			return 2
		case strings.HasPrefix(mt, MIMEText):
			return 1
		}
		return 0
	}

	best, bestRank := ClipboardFormat{}, 0
	for _, f := range c.Formats {
		if r := rank(f); r > bestRank {
			best, bestRank = f, r
		}
	}
	switch bestRank {
	case 4, 3:
		return best, domain.NodeImage, nil
	case 2:
		return best, domain.NodeHTML, nil
	case 1:
		return best, domain.NodeText, nil
	}
	return ClipboardFormat{}, "", ErrEmptyClipboard
}

// IsImageData reports whether f carries raw image bytes that need uploading.
func (f ClipboardFormat) IsImageData() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.MIMEType)), "image/")
}

// Copy renders a node in its native clipboard format.
func Copy(n domain.Node) (Clipboard, error) {
	if n.Value == nil {
		return Clipboard{}, ErrNotCopyable
	}
	var mt string
	switch n.Type {
	case domain.NodeImage:
		mt = MIMEURIList
	case domain.NodeHTML:
		mt = MIMEHTML
	case domain.NodeText:
		mt = MIMEText
	default:
		return Clipboard{}, ErrNotCopyable
	}
	return Clipboard{Formats: []ClipboardFormat{{MIMEType: mt, Data: []byte(*n.Value)}}}, nil
}
