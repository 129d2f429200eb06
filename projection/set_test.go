package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projector/projection"
	"projector/store"
)

func TestSet_ThroughGetter(t *testing.T) {
	e := newEngine(t)
	order := newOrder()

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	labels := view.GetLabels()
	require.NotNil(t, labels)
	assert.Equal(t, 2, labels.Len())
	assert.True(t, labels.Contains("vip"))
	assert.False(t, labels.Contains("rush"))

	values, err := labels.Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"gift", "vip"}, values)

	added, err := labels.Add("rush")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = labels.Add("rush")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Contains(t, order.Labels, "rush")

	assert.True(t, labels.Remove("gift"))
	assert.False(t, labels.Remove("gift"))
	assert.NotContains(t, order.Labels, "gift")

	changed, err := labels.AddAll("vip", "new")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 3, labels.Len())

	labels.Clear()
	assert.True(t, labels.IsEmpty())
	assert.Empty(t, order.Labels)
}

func TestSet_NilMap(t *testing.T) {
	e := newEngine(t)
	order := &store.Order{}

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	labels := view.GetLabels()
	assert.True(t, labels.IsEmpty())

	_, err = labels.Add("first")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"first": {}}, order.Labels)
}

type tag struct {
	Name string
}

type TagView struct {
	projection.Proxy

	GetName func() string
}

func TestProjectSet(t *testing.T) {
	e := newEngine(t)

	set := map[*tag]bool{
		{Name: "b"}: true,
		{Name: "a"}: true,
		{Name: "x"}: false,
	}

	tags, err := projection.ProjectSet[TagView](e, set)
	require.NoError(t, err)
	assert.Equal(t, 2, tags.Len())

	var names []string

	it := tags.Iterator()
	for it.Next() {
		names = append(names, it.Value().GetName())

		if it.Value().GetName() == "a" {
			require.NoError(t, it.Remove())
			require.ErrorIs(t, it.Remove(), projection.ErrIteratorState)
		}
	}

	require.NoError(t, it.Err())
	assert.ElementsMatch(t, []string{"a", "b"}, names)
	assert.Equal(t, 1, tags.Len())

	c := &tag{Name: "c"}

	added, err := tags.Add(c)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, set[c])

	for v, err := range tags.All() {
		require.NoError(t, err)

		if v.GetName() == "c" {
			assert.True(t, tags.Contains(v))
			assert.True(t, tags.Remove(v))
		}
	}

	assert.False(t, set[c])
	assert.Equal(t, 1, tags.Len())
}

func TestProjectSet_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := projection.ProjectSet[TagView](e, []string{"a"})
	require.ErrorIs(t, err, projection.ErrNotCollection)

	_, err = projection.ProjectSet[TagView](e, map[string]int{"a": 1})
	require.ErrorIs(t, err, projection.ErrNotCollection)

	tags, err := projection.ProjectSet[TagView](e, map[*tag]struct{}{})
	require.NoError(t, err)

	it := tags.Iterator()
	require.ErrorIs(t, it.Remove(), projection.ErrIteratorState)
	assert.False(t, it.Next())

	require.ErrorIs(t, tags.RetainAll(), projection.ErrUnsupportedOperation)
	require.ErrorIs(t, tags.RemoveAll(), projection.ErrUnsupportedOperation)

	_, err = tags.ContainsAll()
	require.ErrorIs(t, err, projection.ErrUnsupportedOperation)
}

type PlainTagView struct {
	GetName func() string
}

func TestSet_RemoveBoundMemberWithoutProxy(t *testing.T) {
	e := newEngine(t)

	a := &tag{Name: "a"}
	set := map[*tag]struct{}{a: {}, {Name: "b"}: {}}

	tags, err := projection.ProjectSet[PlainTagView](e, set)
	require.NoError(t, err)

	var found *PlainTagView
	for v, err := range tags.All() {
		require.NoError(t, err)

		if v.GetName() == "a" {
			found = v
		}
	}

	require.NotNil(t, found)
	assert.Same(t, a, projection.Unwrap(found))
	assert.True(t, tags.Contains(found))
	assert.True(t, tags.Remove(found))
	assert.NotContains(t, set, a)
	assert.Equal(t, 1, tags.Len())
}
