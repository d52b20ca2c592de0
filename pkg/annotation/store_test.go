package annotation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/chartdesk/pkg/types"
)

func textAnnotation(ts int64, price float64, text string) types.Annotation {
	return types.Annotation{Type: types.AnnotationText, Timestamp: ts, Price: price, Text: text}
}

func TestStore_AddAssignsID(t *testing.T) {
	store := NewStore()

	a, err := store.Add(textAnnotation(100, 10, "hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.ID, "text-"), a.ID)
	assert.Equal(t, types.DisplayUnitPrice, a.Unit)

	b, err := store.Add(textAnnotation(200, 11, "world"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID, "insertion order is kept")
	assert.Equal(t, b.ID, list[1].ID)
}

func TestStore_AddRejects(t *testing.T) {
	store := NewStore()

	_, err := store.Add(types.Annotation{Type: "arrow", Timestamp: 1})
	assert.ErrorIs(t, err, types.ErrUnknownAnnotationType)

	_, err = store.Add(types.Annotation{Timestamp: 1})
	assert.ErrorIs(t, err, types.ErrMissingField)

	a := textAnnotation(1, 1, "x")
	a.ID = "fixed"
	_, err = store.Add(a)
	require.NoError(t, err)

	_, err = store.Add(a)
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, store.Len())
}

func TestStore_UpdateShallowMerge(t *testing.T) {
	store := NewStore()
	a, err := store.Add(textAnnotation(100, 10, "before"))
	require.NoError(t, err)

	updated, err := store.Update(a.ID, Patch{"text": "after", "verticalOffset": -4.5})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Text)
	assert.Equal(t, -4.5, updated.VerticalOffset)
	assert.Equal(t, 10.0, updated.Price, "untouched fields survive the merge")
	assert.Equal(t, a.ID, updated.ID)

	got, ok := store.Get(a.ID)
	assert.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestStore_UpdateRejectsUnknownFields(t *testing.T) {
	store := NewStore()
	a, err := store.Add(textAnnotation(100, 10, "keep"))
	require.NoError(t, err)

	for _, patch := range []Patch{
		{"type": "percentage"},
		{"id": "other"},
		{"color": "red"},
		{"startPrice": 10.0},
		{"price": "not a number"},
	} {
		_, err := store.Update(a.ID, patch)
		assert.Error(t, err, "%v", patch)
	}

	got, _ := store.Get(a.ID)
	assert.Equal(t, a, got, "rejected patches do not change the annotation")

	_, err = store.Update("missing", Patch{"text": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateRecomputesPercentage(t *testing.T) {
	store := NewStore()
	m, err := store.Add(types.Annotation{
		Type:           types.AnnotationPercentage,
		StartTimestamp: 100, StartPrice: 100,
		EndTimestamp: 200, EndPrice: 110,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.Percentage)

	m, err = store.Update(m.ID, Patch{"endPrice": 120.0})
	require.NoError(t, err)
	assert.Equal(t, 20.0, m.Percentage)

	_, err = store.Update(m.ID, Patch{"percentage": 50.0})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestStore_RemoveAndRemoveAll(t *testing.T) {
	store := NewStore()
	a, _ := store.Add(textAnnotation(1, 1, "a"))
	b, _ := store.Add(textAnnotation(2, 2, "b"))
	c, _ := store.Add(textAnnotation(3, 3, "c"))

	require.NoError(t, store.Remove(b.ID))
	ids := []string{}
	for _, x := range store.List() {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []string{a.ID, c.ID}, ids)

	assert.ErrorIs(t, store.Remove(b.ID), ErrNotFound)

	store.RemoveAll()
	assert.Empty(t, store.List())
}

func TestStore_OnChange(t *testing.T) {
	store := NewStore()

	var calls int
	var last []types.Annotation
	store.OnChange(func(annotations []types.Annotation) {
		calls++
		last = annotations
	})

	a, _ := store.Add(textAnnotation(1, 1, "a"))
	_, _ = store.Update(a.ID, Patch{"text": "b"})
	_, _ = store.Update(a.ID, Patch{"bogus": 1})
	assert.Equal(t, 2, calls, "rejected mutations are not observed")
	require.Len(t, last, 1)
	assert.Equal(t, "b", last[0].Text)

	_ = store.Remove(a.ID)
	assert.Equal(t, 3, calls)
	assert.Empty(t, last)
}

func TestStore_ListIsACopy(t *testing.T) {
	store := NewStore()
	_, _ = store.Add(textAnnotation(1, 1, "a"))

	list := store.List()
	list[0].Text = "mutated"
	assert.Equal(t, "a", store.List()[0].Text)
}

func TestStore_Replace(t *testing.T) {
	store := NewStore()
	_, _ = store.Add(textAnnotation(1, 1, "old"))

	err := store.Replace([]types.Annotation{
		{ID: "x", Type: types.AnnotationText, Timestamp: 1},
		{ID: "x", Type: types.AnnotationNote, Timestamp: 2},
	})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, "old", store.List()[0].Text, "failed replace applies nothing")

	err = store.Replace([]types.Annotation{
		{ID: "x", Type: types.AnnotationText, Timestamp: 1},
		{Type: types.AnnotationHorizontal, Timestamp: 2, Price: 50},
	})
	require.NoError(t, err)
	list := store.List()
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[1].ID)
}
