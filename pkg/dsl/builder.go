package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/ports"
)

// Builder collects slides in insertion order.
type Builder struct {
	order  []domain.SlideID
	slides map[domain.SlideID][]*NodeBuilder
}

// New creates an empty deck builder.
func New() *Builder {
	return &Builder{slides: make(map[domain.SlideID][]*NodeBuilder)}
}

// Slide appends nodes to the slide with the given id, creating it on first use.
func (b *Builder) Slide(id domain.SlideID, nodes ...*NodeBuilder) *Builder {
	if _, ok := b.slides[id]; !ok {
		b.order = append(b.order, id)
		b.slides[id] = []*NodeBuilder{}
	}
	b.slides[id] = append(b.slides[id], nodes...)
	return b
}

// Build returns the validated document.
func (b *Builder) Build() (domain.Document, error) {
	doc := domain.NewDocument()
	for _, id := range b.order {
		nodes := make([]domain.Node, 0, len(b.slides[id]))
		for _, nb := range b.slides[id] {
			nodes = append(nodes, nb.Build())
		}
		doc.Slides[id] = nodes
	}
	if err := doc.Validate(); err != nil {
		return domain.Document{}, fmt.Errorf("failed to build deck: %w", err)
	}
	return doc, nil
}

// MustBuild is Build that panics on invalid decks, for fixtures.
func (b *Builder) MustBuild() domain.Document {
	doc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return doc
}

// Seed builds the deck and saves it for patientID.
func (b *Builder) Seed(ctx context.Context, store ports.PresentationStore, patientID string) (domain.Document, error) {
	doc, err := b.Build()
	if err != nil {
		return domain.Document{}, err
	}
	if err := store.Save(ctx, patientID, doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to seed presentation %s: %w", patientID, err)
	}
	return doc, nil
}
