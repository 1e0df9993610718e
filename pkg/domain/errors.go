package domain

import "errors"

// ErrPresentationNotFound is returned when no presentation is stored for a patient.
var ErrPresentationNotFound = errors.New("presentation not found")

// ErrNodeNotFound is returned when an operation needs a node that is not on the slide.
var ErrNodeNotFound = errors.New("node not found")

// ErrInvalidNode is returned when a node violates the document invariants.
var ErrInvalidNode = errors.New("invalid node")

// ErrNoSelection is returned by clipboard operations when nothing is selected.
var ErrNoSelection = errors.New("no node selected")

// ErrUnknownSlide is returned when a slide id is not part of the deck.
var ErrUnknownSlide = errors.New("unknown slide")

// ErrImageNotFound is returned when an uploaded image id is unknown.
var ErrImageNotFound = errors.New("image not found")
