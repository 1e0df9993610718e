package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.PresentationStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks text matching the patterns in the
// values of text and html nodes before they reach the store. Image locations and
// embedded widgets are left alone.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.PresentationStore) ports.PresentationStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, patientID string, doc domain.Document) error {
	// Clone so the editor's in-memory deck keeps the original text.
	masked := doc.Clone()
	for _, nodes := range masked.Slides {
		for i := range nodes {
			n := &nodes[i]
			if n.Value == nil || (n.Type != domain.NodeText && n.Type != domain.NodeHTML) {
				continue
			}
			v := *n.Value
			for _, p := range m.patterns {
				v = p.ReplaceAllString(v, Mask)
			}
			n.Value = &v
		}
	}
	return m.next.Save(ctx, patientID, masked)
}

func (m *redactionMiddleware) Load(ctx context.Context, patientID string) (domain.Document, error) {
	return m.next.Load(ctx, patientID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, patientID string) error {
	return m.next.Delete(ctx, patientID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
