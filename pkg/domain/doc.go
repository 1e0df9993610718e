/*
Package domain contains the document model of a slide presentation.

It defines the entities the editing core works on: Nodes placed on a fixed logical
canvas, Slides that group them in insertion order, and the Document that is exchanged
with persistence backends. This package is kept pure and free of I/O, following
Hexagonal Architecture principles.

# Key Entities

  - Node: One placeable content block (text, image, html, mutation table, timeline).
  - Position: Canvas coordinates plus an optional explicit width.
  - SlideID: A stable, comparable slide key (counter or UUID).
  - Document: The flattened deck, slide id to node list, as persisted per patient.
  - SlideDiff: Node-level delta between two versions of one slide.
*/
package domain
