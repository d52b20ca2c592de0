package interact

import (
	"github.com/pkg/errors"

	"github.com/c9s/chartdesk/pkg/types"
)

var ErrUnknownTool = errors.New("unknown tool")

type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingText         State = "awaitingText"
	StateAwaitingMeasureStart State = "awaitingMeasureStart"
	StateAwaitingMeasureEnd   State = "awaitingMeasureEnd"
	StateDragging             State = "dragging"
	StateEditingModal         State = "editingModal"
)

// Tool is the annotation tool the user armed. ToolNone leaves the chart
// in plain drag/select mode.
type Tool string

const (
	ToolNone       Tool = ""
	ToolText       Tool = "text"
	ToolPercentage Tool = "percentage"
	ToolHorizontal Tool = "horizontal"
	ToolNote       Tool = "note"
)

// initialStates maps every tool to the sub-state it resets to on selection,
// after a completed gesture, and after a drag or modal ends.
var initialStates = map[Tool]State{
	ToolNone:       StateIdle,
	ToolText:       StateAwaitingText,
	ToolHorizontal: StateAwaitingText,
	ToolNote:       StateAwaitingText,
	ToolPercentage: StateAwaitingMeasureStart,
}

func (t Tool) Valid() bool {
	_, ok := initialStates[t]
	return ok
}

func (t Tool) InitialState() State {
	if s, ok := initialStates[t]; ok {
		return s
	}
	return StateIdle
}

// AnnotationType is the kind of annotation a click places with this tool.
func (t Tool) AnnotationType() types.AnnotationType {
	switch t {
	case ToolText:
		return types.AnnotationText
	case ToolHorizontal:
		return types.AnnotationHorizontal
	case ToolNote:
		return types.AnnotationNote
	case ToolPercentage:
		return types.AnnotationPercentage
	}
	return ""
}

// freehand tools take the clicked y as the value instead of snapping to the data point
func (t Tool) freehand() bool {
	return t == ToolHorizontal || t == ToolNote
}

type DragKind string

const (
	DragVerticalMove   DragKind = "verticalMove"
	DragHorizontalMove DragKind = "horizontalMove"
	DragTextMove2D     DragKind = "textMove2D"
)

// Drag is the in-flight drag gesture. It refers to the annotation by id
// only, so a series swap mid-drag changes subsequent pixel math and nothing else.
type Drag struct {
	AnnotationID string
	Kind         DragKind

	lastX, lastY float64
}

// PointerCapture registers global pointer move/up listeners. The machine
// captures when a drag starts and releases exactly once when it ends.
type PointerCapture interface {
	Capture()
	Release()
}

type noopCapture struct{}

func (noopCapture) Capture() {}
func (noopCapture) Release() {}

// Tolerances tune the proximity hit-testing of existing annotations.
type Tolerances struct {
	// PriceFraction is the distance to a horizontal line, as a fraction of the Y-domain range.
	PriceFraction float64 `json:"priceFraction" yaml:"priceFraction"`

	// IndexPercent and MinIndex give the data-index distance to a text marker line:
	// max(MinIndex, IndexPercent * series length).
	IndexPercent float64 `json:"indexPercent" yaml:"indexPercent"`
	MinIndex     int     `json:"minIndex" yaml:"minIndex"`

	// LabelRadius is the pixel radius around a text/note label that grabs the label itself.
	LabelRadius float64 `json:"labelRadius" yaml:"labelRadius"`
}

const (
	minPriceFraction = 0.005
	maxPriceFraction = 0.02
)

func DefaultTolerances() Tolerances {
	return Tolerances{
		PriceFraction: 0.01,
		IndexPercent:  0.02,
		MinIndex:      2,
		LabelRadius:   12,
	}
}

// Normalize fills zero values with the defaults and clamps the price fraction.
func (t Tolerances) Normalize() Tolerances {
	def := DefaultTolerances()
	if t.PriceFraction <= 0 {
		t.PriceFraction = def.PriceFraction
	}
	if t.PriceFraction < minPriceFraction {
		t.PriceFraction = minPriceFraction
	}
	if t.PriceFraction > maxPriceFraction {
		t.PriceFraction = maxPriceFraction
	}
	if t.IndexPercent <= 0 {
		t.IndexPercent = def.IndexPercent
	}
	if t.MinIndex <= 0 {
		t.MinIndex = def.MinIndex
	}
	if t.LabelRadius <= 0 {
		t.LabelRadius = def.LabelRadius
	}
	return t
}

func (t Tolerances) indexTolerance(n int) float64 {
	tol := t.IndexPercent * float64(n)
	if tol < float64(t.MinIndex) {
		return float64(t.MinIndex)
	}
	return tol
}
