package interact

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/annotation"
	"github.com/c9s/chartdesk/pkg/coord"
	"github.com/c9s/chartdesk/pkg/types"
)

var log = logrus.WithField("component", "interact")

type Option func(m *Machine)

func WithTolerances(t Tolerances) Option {
	return func(m *Machine) {
		m.tolerances = t.Normalize()
	}
}

func WithPointerCapture(c PointerCapture) Option {
	return func(m *Machine) {
		if c != nil {
			m.capture = c
		}
	}
}

// Machine translates pointer events on one chart session into annotation
// store mutations. It is driven from a single event loop and is not safe
// for concurrent use.
//
// Callers forward raw events (Click, PointerDown, PointerMove, PointerUp,
// DoubleClick) and the modal outcome (SaveModal, CancelModal, DeleteModal).
// The click that terminates a drag gesture should not be forwarded.
type Machine struct {
	store      *annotation.Store
	frame      coord.Frame
	tolerances Tolerances
	capture    PointerCapture

	tool  Tool
	state State

	pending   *types.PendingMeasurement
	drag      *Drag
	draft     *types.Annotation
	editingID string
}

func New(store *annotation.Store, frame coord.Frame, options ...Option) *Machine {
	m := &Machine{
		store:      store,
		frame:      frame,
		tolerances: DefaultTolerances(),
		capture:    noopCapture{},
		tool:       ToolNone,
		state:      StateIdle,
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}

	log.Debugf("[interact]: transiting state from %s -> %s", m.state, s)
	m.state = s
}

// reset leaves any gesture and returns to the armed tool's initial sub-state.
func (m *Machine) reset() {
	m.endDrag()
	m.draft = nil
	m.editingID = ""
	m.setState(m.tool.InitialState())
}

func (m *Machine) endDrag() {
	if m.drag == nil {
		return
	}

	m.drag = nil
	m.capture.Release()
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Tool() Tool {
	return m.tool
}

func (m *Machine) Frame() coord.Frame {
	return m.frame
}

// SetFrame swaps the series, viewport or domain. It is safe mid-gesture:
// in-flight state refers to annotation ids and data-space values only.
func (m *Machine) SetFrame(frame coord.Frame) {
	m.frame = frame
}

// Pending returns the first point of a measurement in progress.
func (m *Machine) Pending() (types.PendingMeasurement, bool) {
	if m.pending == nil {
		return types.PendingMeasurement{}, false
	}
	return *m.pending, true
}

// Draft returns the annotation waiting for its text in the modal.
func (m *Machine) Draft() (types.Annotation, bool) {
	if m.draft == nil {
		return types.Annotation{}, false
	}
	return *m.draft, true
}

// EditingID returns the id of the existing annotation open in the modal.
func (m *Machine) EditingID() string {
	return m.editingID
}

func (m *Machine) Dragging() (Drag, bool) {
	if m.drag == nil {
		return Drag{}, false
	}
	return *m.drag, true
}

// SelectTool arms a tool. It always resets to the tool's initial sub-state
// and cancels any pending measurement, draft or drag.
func (m *Machine) SelectTool(tool Tool) error {
	if !tool.Valid() {
		return errors.Wrapf(ErrUnknownTool, "%q", tool)
	}

	m.pending = nil
	m.tool = tool
	m.reset()
	return nil
}

// pointAt snaps the pixel x to the nearest data point.
func (m *Machine) pointAt(x float64) (types.PendingMeasurement, bool) {
	idx, ok := m.frame.NearestIndex(x)
	if !ok {
		return types.PendingMeasurement{}, false
	}

	series := m.frame.Series
	return types.PendingMeasurement{
		Timestamp: series.Points[idx].Timestamp,
		Price:     m.frame.ValueAt(idx),
		Time:      series.TimeLabel(idx),
	}, true
}

// Click handles a primary click at pixel (x, y). Clicks that cannot be
// resolved against the current series are ignored.
func (m *Machine) Click(x, y float64) error {
	switch m.state {

	case StateAwaitingText:
		m.beginDraft(x, y)
		return nil

	case StateAwaitingMeasureStart:
		p, ok := m.pointAt(x)
		if !ok {
			return nil
		}

		m.pending = &p
		m.setState(StateAwaitingMeasureEnd)
		return nil

	case StateAwaitingMeasureEnd:
		end, ok := m.pointAt(x)
		if !ok || m.pending == nil {
			return nil
		}

		measurement := types.NewMeasurement(*m.pending, end, m.frame.Unit())
		added, err := m.store.Add(measurement)
		if err != nil {
			return errors.Wrap(err, "can not add measurement")
		}

		log.Infof("measured %s -> %s: %.2f%%", added.StartTime, added.EndTime, added.Percentage)

		// the tool stays armed for repeated measurements
		m.pending = nil
		m.setState(StateAwaitingMeasureStart)
		return nil
	}

	return nil
}

func (m *Machine) beginDraft(x, y float64) {
	p, ok := m.pointAt(x)
	if !ok {
		return
	}

	value := p.Price
	if m.tool.freehand() {
		value = m.frame.ValueAtY(y)
	}

	m.draft = &types.Annotation{
		Type:      m.tool.AnnotationType(),
		Unit:      m.frame.Unit(),
		Timestamp: p.Timestamp,
		Time:      p.Time,
		Price:     value,
	}
	m.editingID = ""
	m.setState(StateEditingModal)
}

// PointerDown starts a drag when the pointer is near an existing annotation.
// Drags start only when no measurement or modal is in progress.
func (m *Machine) PointerDown(x, y float64) bool {
	if m.state != StateIdle && m.state != StateAwaitingText {
		return false
	}

	hit, ok := m.hitTest(x, y)
	if !ok {
		return false
	}

	m.drag = &Drag{
		AnnotationID: hit.id,
		Kind:         hit.kind,
		lastX:        x,
		lastY:        y,
	}
	m.capture.Capture()
	m.setState(StateDragging)
	return true
}

// PointerMove applies the live drag update; the store always reflects the
// position under the pointer.
func (m *Machine) PointerMove(x, y float64) {
	if m.state != StateDragging || m.drag == nil {
		return
	}

	a, ok := m.store.Get(m.drag.AnnotationID)
	if !ok {
		// removed mid-drag
		m.reset()
		return
	}

	var patch annotation.Patch
	switch m.drag.Kind {

	case DragVerticalMove:
		delta := m.frame.ValueAtY(y) - m.frame.ValueAtY(m.drag.lastY)
		if delta != 0 {
			display := m.frame.DisplayValue(a.Price, a.Unit) + delta
			patch = annotation.Patch{"price": m.frame.StoredValue(display, a.Unit)}
		}

	case DragHorizontalMove:
		now, ok1 := m.frame.NearestIndex(x)
		last, ok2 := m.frame.NearestIndex(m.drag.lastX)
		cur, ok3 := m.frame.Series.IndexOf(a.Timestamp)
		if ok1 && ok2 && ok3 && now != last {
			next := cur + now - last
			if next < 0 {
				next = 0
			}
			if maxIndex := m.frame.Series.Len() - 1; next > maxIndex {
				next = maxIndex
			}

			patch = annotation.Patch{
				"timestamp": m.frame.Series.Points[next].Timestamp,
				"time":      m.frame.Series.TimeLabel(next),
			}
		}

	case DragTextMove2D:
		dx, dy := x-m.drag.lastX, y-m.drag.lastY
		if dx != 0 || dy != 0 {
			patch = annotation.Patch{
				"horizontalOffset": a.HorizontalOffset + dx,
				"verticalOffset":   a.VerticalOffset + dy,
			}
		}
	}

	m.drag.lastX, m.drag.lastY = x, y

	if patch == nil {
		return
	}

	if _, err := m.store.Update(a.ID, patch); err != nil {
		log.WithError(err).Warnf("can not apply %s drag to %s", m.drag.Kind, a.ID)
	}
}

// PointerUp ends a drag. Nothing else is committed: the store already holds
// the live-updated value.
func (m *Machine) PointerUp(x, y float64) {
	if m.state != StateDragging {
		return
	}

	m.reset()
}

// DoubleClick opens the editor for text, horizontal and note annotations
// and deletes percentage measurements outright.
func (m *Machine) DoubleClick(id string) error {
	if m.state == StateDragging {
		return nil
	}

	a, ok := m.store.Get(id)
	if !ok {
		return errors.Wrapf(annotation.ErrNotFound, "%s", id)
	}

	if a.Type == types.AnnotationPercentage {
		return m.store.Remove(id)
	}

	// the modal abandons a half-placed measurement
	m.pending = nil
	m.draft = nil
	m.editingID = id
	m.setState(StateEditingModal)
	return nil
}
