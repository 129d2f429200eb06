package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projector/projection"
	"projector/store"
)

func names(t *testing.T, list *projection.List[*ItemView]) []string {
	t.Helper()

	values, err := list.Values()
	require.NoError(t, err)

	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.GetName())
	}

	return out
}

func TestList_ThroughGetter(t *testing.T) {
	e := newEngine(t)
	order := newOrder()

	view, err := projection.Project[OrderView](e, order)
	require.NoError(t, err)

	items := view.GetItems()
	require.NotNil(t, items)
	assert.Equal(t, 3, items.Len())

	first, err := items.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "pen", first.GetName())
	assert.Equal(t, int64(300), first.Subtotal())

	first.SetQuantity(5)
	assert.Equal(t, 5, order.Items[0].Quantity)

	require.NoError(t, items.Add(store.OrderItem{Name: "tape", Quantity: 1, UnitPrice: 90}))
	assert.Equal(t, 4, items.Len())
	assert.Len(t, order.Items, 4)

	assert.True(t, items.Remove(first))
	assert.Equal(t, []string{"ink", "pad", "tape"}, names(t, items))
	assert.Equal(t, []string{"ink", "pad", "tape"}, []string{order.Items[0].Name, order.Items[1].Name, order.Items[2].Name})
}

func TestProjectAll(t *testing.T) {
	e := newEngine(t)
	items := newOrder().Items

	list, err := projection.ProjectAll[ItemView](e, &items)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Len())
	assert.False(t, list.IsEmpty())

	require.NoError(t, list.Insert(1, &store.OrderItem{Name: "clip"}))
	assert.Equal(t, []string{"pen", "clip", "ink", "pad"}, names(t, list))
	assert.Len(t, items, 4)

	clip, err := list.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, list.IndexOf(clip))
	assert.True(t, list.Contains(clip))
	assert.True(t, list.Contains(store.OrderItem{Name: "ink", Quantity: 1, UnitPrice: 700}))
	assert.False(t, list.Contains(store.OrderItem{Name: "ink"}))
	assert.Equal(t, -1, list.IndexOf("ink"))

	require.NoError(t, list.Set(0, store.OrderItem{Name: "pad", Quantity: 3, UnitPrice: 200}))
	assert.Equal(t, 0, list.IndexOf(store.OrderItem{Name: "pad", Quantity: 3, UnitPrice: 200}))
	assert.Equal(t, 3, list.LastIndexOf(store.OrderItem{Name: "pad", Quantity: 3, UnitPrice: 200}))

	removed, err := list.RemoveAt(0)
	require.NoError(t, err)
	assert.Equal(t, "pad", removed.GetName())
	assert.Equal(t, []string{"clip", "ink", "pad"}, names(t, list))

	require.NoError(t, list.AddAll(store.OrderItem{Name: "a"}, store.OrderItem{Name: "b"}))
	assert.Equal(t, []string{"clip", "ink", "pad", "a", "b"}, names(t, list))

	require.Error(t, list.AddAll(store.OrderItem{Name: "c"}, 42))
	assert.Equal(t, 5, list.Len())

	list.Clear()
	assert.True(t, list.IsEmpty())
	assert.Empty(t, items)
}

func TestProjectAll_Values(t *testing.T) {
	e := newEngine(t)

	items := []store.OrderItem{{Name: "pen"}, {Name: "ink"}}

	list, err := projection.ProjectAll[ItemView](e, items)
	require.NoError(t, err)

	first, err := list.Get(0)
	require.NoError(t, err)
	first.SetQuantity(9)
	assert.Equal(t, 9, items[0].Quantity)

	require.NoError(t, list.Add(store.OrderItem{Name: "pad"}))
	assert.Equal(t, 3, list.Len())
	assert.Len(t, items, 2)

	var seen []string
	for item, err := range list.All() {
		require.NoError(t, err)
		seen = append(seen, item.GetName())
	}

	assert.Equal(t, []string{"pen", "ink", "pad"}, seen)
}

func TestProjectAll_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := projection.ProjectAll[ItemView](e, 42)
	require.ErrorIs(t, err, projection.ErrNotCollection)

	_, err = projection.ProjectAll[ItemView](e, nil)
	require.ErrorIs(t, err, projection.ErrNotCollection)

	_, err = projection.ProjectAll[store.OrderItem](e, []store.OrderItem{})
	require.ErrorIs(t, err, projection.ErrNotContract)

	list, err := projection.ProjectAll[ItemView](e, []store.OrderItem{{Name: "pen"}})
	require.NoError(t, err)

	_, err = list.Get(1)
	require.ErrorIs(t, err, projection.ErrIndexOutOfRange)

	_, err = list.Get(-1)
	require.ErrorIs(t, err, projection.ErrIndexOutOfRange)

	require.ErrorIs(t, list.Insert(2, store.OrderItem{}), projection.ErrIndexOutOfRange)
	require.ErrorIs(t, list.Set(1, store.OrderItem{}), projection.ErrIndexOutOfRange)

	_, err = list.SubList(1, 0)
	require.ErrorIs(t, err, projection.ErrIndexOutOfRange)

	require.ErrorIs(t, list.RetainAll(store.OrderItem{}), projection.ErrUnsupportedOperation)
	require.ErrorIs(t, list.RemoveAll(store.OrderItem{}), projection.ErrUnsupportedOperation)

	_, err = list.ContainsAll(store.OrderItem{})
	require.ErrorIs(t, err, projection.ErrUnsupportedOperation)
}

func TestList_SubList(t *testing.T) {
	e := newEngine(t)
	items := newOrder().Items

	list, err := projection.ProjectAll[ItemView](e, &items)
	require.NoError(t, err)

	sub, err := list.SubList(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ink"}, names(t, sub))

	require.NoError(t, sub.Set(0, store.OrderItem{Name: "ink2"}))
	assert.Equal(t, "ink2", items[1].Name)

	require.NoError(t, sub.Add(store.OrderItem{Name: "new"}))
	assert.Equal(t, "pad", items[2].Name)
	assert.Equal(t, []string{"ink2", "new"}, names(t, sub))
}

func TestListIterator(t *testing.T) {
	e := newEngine(t)
	items := newOrder().Items

	list, err := projection.ProjectAll[ItemView](e, &items)
	require.NoError(t, err)

	it := list.Iterator()
	assert.False(t, it.HasPrevious())
	require.ErrorIs(t, it.Remove(), projection.ErrIteratorState)
	require.ErrorIs(t, it.Set(store.OrderItem{}), projection.ErrIteratorState)

	var visited []string
	for it.HasNext() {
		item, err := it.Next()
		require.NoError(t, err)
		visited = append(visited, item.GetName())

		if item.GetName() == "ink" {
			require.NoError(t, it.Remove())
			require.ErrorIs(t, it.Remove(), projection.ErrIteratorState)
		}
	}

	assert.Equal(t, []string{"pen", "ink", "pad"}, visited)
	assert.Equal(t, []string{"pen", "pad"}, names(t, list))
	assert.Equal(t, 2, it.NextIndex())

	_, err = it.Next()
	require.ErrorIs(t, err, projection.ErrIndexOutOfRange)

	last, err := it.Previous()
	require.NoError(t, err)
	assert.Equal(t, "pad", last.GetName())
	assert.Equal(t, 0, it.PreviousIndex())

	require.NoError(t, it.Set(store.OrderItem{Name: "pad2"}))
	require.NoError(t, it.Add(store.OrderItem{Name: "mid"}))
	assert.Equal(t, []string{"pen", "mid", "pad2"}, names(t, list))
	assert.Equal(t, 2, it.NextIndex())

	next, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "pad2", next.GetName())
}

type PlainItemView struct {
	GetName func() string
}

func TestList_RemoveBoundElementWithoutProxy(t *testing.T) {
	e := newEngine(t)
	items := newOrder().Items

	list, err := projection.ProjectAll[PlainItemView](e, &items)
	require.NoError(t, err)

	first, err := list.Get(0)
	require.NoError(t, err)

	assert.Equal(t, items[0], projection.Unwrap(first))
	assert.True(t, list.Contains(first))
	assert.Equal(t, 0, list.IndexOf(first))

	assert.True(t, list.Remove(first))
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, "ink", items[0].Name)
}

func TestList_ElementTracksSlot(t *testing.T) {
	e := newEngine(t)
	items := newOrder().Items

	list, err := projection.ProjectAll[PlainItemView](e, &items)
	require.NoError(t, err)

	second, err := list.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "ink", second.GetName())

	_, err = list.RemoveAt(0)
	require.NoError(t, err)

	// element views address slots, not elements
	assert.Equal(t, "pad", second.GetName())
}
