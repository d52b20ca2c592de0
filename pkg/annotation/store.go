package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/chartdesk/pkg/types"
)

var log = logrus.WithField("component", "annotation")

var (
	ErrNotFound     = errors.New("annotation not found")
	ErrDuplicateID  = errors.New("duplicated annotation id")
	ErrUnknownField = errors.New("unknown or immutable annotation field")
)

// Patch is a shallow merge patch keyed by the JSON field names of types.Annotation.
type Patch map[string]interface{}

var pointFields = map[string]struct{}{
	"timestamp":        {},
	"time":             {},
	"price":            {},
	"text":             {},
	"horizontalOffset": {},
	"verticalOffset":   {},
}

var measurementFields = map[string]struct{}{
	"startTimestamp": {},
	"startPrice":     {},
	"startTime":      {},
	"endTimestamp":   {},
	"endPrice":       {},
	"endTime":        {},
}

// PatchableFields returns the fields Update accepts for an annotation type.
func PatchableFields(t types.AnnotationType) map[string]struct{} {
	if t == types.AnnotationPercentage {
		return measurementFields
	}
	return pointFields
}

// Store holds the ordered annotations of the active symbol/session.
// Every mutation is synchronous; observers registered with OnChange are
// notified after the mutation is applied.
//
//go:generate callbackgen -type Store
type Store struct {
	mu          sync.RWMutex
	annotations []types.Annotation

	changeCallbacks []func(annotations []types.Annotation)
}

func NewStore() *Store {
	return &Store{}
}

func NewID(t types.AnnotationType) string {
	return fmt.Sprintf("%s-%s", t, uuid.NewString())
}

func (s *Store) indexOf(id string) int {
	for i, a := range s.annotations {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []types.Annotation {
	out := make([]types.Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// Add appends an annotation, assigning an id when the caller did not supply one.
func (s *Store) Add(a types.Annotation) (types.Annotation, error) {
	if err := a.Validate(); err != nil {
		return a, err
	}

	a.Unit = a.Unit.OrDefault()
	if a.Type == types.AnnotationPercentage {
		a.Percentage = types.ComputePercentage(a.StartPrice, a.EndPrice, a.Unit)
	}

	s.mu.Lock()
	if a.ID == "" {
		a.ID = NewID(a.Type)
	} else if s.indexOf(a.ID) >= 0 {
		s.mu.Unlock()
		return a, errors.Wrapf(ErrDuplicateID, "%s", a.ID)
	}

	s.annotations = append(s.annotations, a)
	snapshot := s.snapshot()
	s.mu.Unlock()

	log.Debugf("added %s annotation %s", a.Type, a.ID)
	s.EmitChange(snapshot)
	return a, nil
}

// Update shallow-merges patch into the annotation. Only the fields that
// belong to the annotation's type are accepted; id, type and unit are immutable.
func (s *Store) Update(id string, patch Patch) (types.Annotation, error) {
	s.mu.Lock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return types.Annotation{}, errors.Wrapf(ErrNotFound, "%s", id)
	}

	updated, err := applyPatch(s.annotations[idx], patch)
	if err != nil {
		s.mu.Unlock()
		return s.annotations[idx], err
	}

	s.annotations[idx] = updated
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.EmitChange(snapshot)
	return updated, nil
}

func applyPatch(orig types.Annotation, patch Patch) (types.Annotation, error) {
	allowed := PatchableFields(orig.Type)
	for field := range patch {
		if _, ok := allowed[field]; !ok {
			return orig, errors.Wrapf(ErrUnknownField, "%q on %s annotation", field, orig.Type)
		}
	}

	doc, err := json.Marshal(orig)
	if err != nil {
		return orig, err
	}

	patchData, err := json.Marshal(patch)
	if err != nil {
		return orig, errors.Wrap(err, "encode patch")
	}

	merged, err := jsonpatch.MergePatch(doc, patchData)
	if err != nil {
		return orig, errors.Wrap(err, "merge patch")
	}

	var updated types.Annotation
	dec := json.NewDecoder(bytes.NewReader(merged))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&updated); err != nil {
		return orig, errors.Wrap(err, "invalid patch value")
	}

	if err := updated.Validate(); err != nil {
		return orig, err
	}

	if updated.Type == types.AnnotationPercentage {
		updated.Percentage = types.ComputePercentage(updated.StartPrice, updated.EndPrice, updated.Unit)
	}

	return updated, nil
}

func (s *Store) Remove(id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return errors.Wrapf(ErrNotFound, "%s", id)
	}

	s.annotations = append(s.annotations[:idx], s.annotations[idx+1:]...)
	snapshot := s.snapshot()
	s.mu.Unlock()

	log.Debugf("removed annotation %s", id)
	s.EmitChange(snapshot)
	return nil
}

func (s *Store) RemoveAll() {
	s.mu.Lock()
	s.annotations = nil
	s.mu.Unlock()

	s.EmitChange(nil)
}

// List returns a copy of the annotations in insertion order.
func (s *Store) List() []types.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.annotations)
}

func (s *Store) Get(id string) (types.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return types.Annotation{}, false
	}
	return s.annotations[idx], true
}

// Replace swaps in a whole annotation set, e.g. one loaded from persistence.
// Nothing is applied unless every annotation is valid and ids are unique.
func (s *Store) Replace(annotations []types.Annotation) error {
	seen := make(map[string]struct{}, len(annotations))
	next := make([]types.Annotation, 0, len(annotations))
	for i, a := range annotations {
		if err := a.Validate(); err != nil {
			return errors.Wrapf(err, "annotation #%d", i)
		}

		if a.ID == "" {
			a.ID = NewID(a.Type)
		}

		if _, dup := seen[a.ID]; dup {
			return errors.Wrapf(ErrDuplicateID, "%s", a.ID)
		}
		seen[a.ID] = struct{}{}

		a.Unit = a.Unit.OrDefault()
		next = append(next, a)
	}

	s.mu.Lock()
	s.annotations = next
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.EmitChange(snapshot)
	return nil
}
