package interact

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/c9s/chartdesk/pkg/annotation"
	"github.com/c9s/chartdesk/pkg/types"
)

const MaxTextLength = 280

var (
	ErrInvalidText = errors.New("invalid annotation text")
	ErrNoModal     = errors.New("no annotation is being edited")
)

// ValidateText checks the text committed from the modal. Text and note
// annotations need a non-empty text; a horizontal line label is optional.
func ValidateText(t types.AnnotationType, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" && t != types.AnnotationHorizontal {
		return "", errors.Wrap(ErrInvalidText, "text can not be empty")
	}

	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", errors.Wrapf(ErrInvalidText, "text exceeds %d characters", MaxTextLength)
	}

	return text, nil
}

// SaveModal commits the modal: existing annotations get their text updated,
// a new draft is added to the store. On validation failure the modal stays open.
func (m *Machine) SaveModal(text string) (types.Annotation, error) {
	if m.state != StateEditingModal {
		return types.Annotation{}, ErrNoModal
	}

	if m.editingID != "" {
		existing, ok := m.store.Get(m.editingID)
		if !ok {
			m.reset()
			return types.Annotation{}, errors.Wrapf(annotation.ErrNotFound, "%s", m.editingID)
		}

		text, err := ValidateText(existing.Type, text)
		if err != nil {
			return existing, err
		}

		updated, err := m.store.Update(existing.ID, annotation.Patch{"text": text})
		if err != nil {
			return existing, err
		}

		m.reset()
		return updated, nil
	}

	if m.draft == nil {
		m.reset()
		return types.Annotation{}, ErrNoModal
	}

	draft := *m.draft
	text, err := ValidateText(draft.Type, text)
	if err != nil {
		return draft, err
	}

	draft.Text = text
	added, err := m.store.Add(draft)
	if err != nil {
		return draft, err
	}

	m.reset()
	return added, nil
}

// CancelModal discards the draft or leaves the existing annotation untouched.
func (m *Machine) CancelModal() {
	if m.state != StateEditingModal {
		return
	}

	m.reset()
}

// DeleteModal removes the annotation being edited, or discards a new draft.
func (m *Machine) DeleteModal() error {
	if m.state != StateEditingModal {
		return ErrNoModal
	}

	id := m.editingID
	m.reset()

	if id == "" {
		return nil
	}

	return m.store.Remove(id)
}
