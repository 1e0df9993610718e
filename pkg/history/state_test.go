package history_test

import (
	"reflect"
	"testing"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodes(values ...string) []domain.Node {
	out := make([]domain.Node, 0, len(values))
	for i, v := range values {
		out = append(out, domain.NewNode(string(rune('a'+i)), domain.NodeText, domain.Ptr(v), 0, 0))
	}
	return out
}

func reducer() history.Reducer[[]domain.Node] {
	return history.Reducer[[]domain.Node]{Equal: domain.EqualNodes}
}

func sameMap[K comparable, V any](a, b map[K]V) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestReduce_UndoRedoOnNewSlide(t *testing.T) {
	r := reducer()
	store := history.Store[[]domain.Node]{}

	for _, action := range []history.Action[[]domain.Node]{
		history.Undo[[]domain.Node]("s1"),
		history.Redo[[]domain.Node]("s1"),
	} {
		t.Run(string(action.Type), func(t *testing.T) {
			next, changed, err := r.Reduce(store, action)
			require.ErrorIs(t, err, history.ErrInvalidAction)
			assert.Contains(t, err.Error(), "invalid action for new slide")
			assert.Contains(t, err.Error(), "s1")
			assert.False(t, changed)
			assert.True(t, sameMap(store, next))
		})
	}
}

func TestReduce_FirstSet(t *testing.T) {
	r := reducer()
	v := nodes("hello")

	next, changed, err := r.Reduce(history.Store[[]domain.Node]{}, history.Set("s1", v))
	require.NoError(t, err)
	assert.True(t, changed)

	ts := next["s1"]
	require.Len(t, ts.Past, 1)
	assert.Nil(t, ts.Past[0], "the first commit pushes the never-written sentinel")
	assert.Equal(t, v, ts.Present)
	assert.Empty(t, ts.Future)
}

func TestReduce_FirstSetOfEmptySlide(t *testing.T) {
	r := reducer()

	next, changed, err := r.Reduce(history.Store[[]domain.Node]{}, history.Set("s1", []domain.Node{}))
	require.NoError(t, err)
	assert.True(t, changed, "an empty slide differs from a slide that was never written")
	assert.Len(t, next["s1"].Past, 1)
	assert.NotNil(t, next["s1"].Present)
}

func TestReduce_SetIsIdempotent(t *testing.T) {
	r := reducer()
	store, _, err := r.Reduce(history.Store[[]domain.Node]{}, history.Set("s1", nodes("x")))
	require.NoError(t, err)

	// A structurally equal but freshly built list is still a no-op.
	next, changed, err := r.Reduce(store, history.Set("s1", nodes("x")))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, sameMap(store, next), "no-op must return the same store")
	assert.Len(t, next["s1"].Past, 1)
	assert.Empty(t, next["s1"].Future)
}

func TestReduce_UndoRedoRoundTrip(t *testing.T) {
	r := reducer()
	v1, v2 := nodes("one"), nodes("two")

	store := history.Store[[]domain.Node]{}
	var err error
	for _, a := range []history.Action[[]domain.Node]{
		history.Set("s", v1),
		history.Set("s", v2),
		history.Undo[[]domain.Node]("s"),
	} {
		store, _, err = r.Reduce(store, a)
		require.NoError(t, err)
	}

	assert.Equal(t, v1, store["s"].Present)
	assert.Equal(t, [][]domain.Node{v2}, store["s"].Future)
	assert.Len(t, store["s"].Past, 1)

	store, _, err = r.Reduce(store, history.Redo[[]domain.Node]("s"))
	require.NoError(t, err)
	assert.Equal(t, v2, store["s"].Present)
	assert.Empty(t, store["s"].Future)
	assert.Len(t, store["s"].Past, 2)
}

func TestReduce_SetAfterUndoDropsRedo(t *testing.T) {
	r := reducer()
	store := history.Store[[]domain.Node]{}
	var err error
	for _, a := range []history.Action[[]domain.Node]{
		history.Set("s", nodes("1")),
		history.Set("s", nodes("2")),
		history.Undo[[]domain.Node]("s"),
		history.Set("s", nodes("3")),
	} {
		store, _, err = r.Reduce(store, a)
		require.NoError(t, err)
	}

	assert.Empty(t, store["s"].Future)
	assert.Equal(t, nodes("3"), store["s"].Present)
	for _, past := range store["s"].Past {
		assert.NotEqual(t, nodes("2"), past)
	}
}

func TestReduce_ClearReplacesStore(t *testing.T) {
	r := reducer()
	store := history.Store[[]domain.Node]{}
	var err error
	store, _, err = r.Reduce(store, history.Set("a", nodes("a")))
	require.NoError(t, err)
	store, _, err = r.Reduce(store, history.Set("b", nodes("b")))
	require.NoError(t, err)

	next, changed, err := r.Reduce(store, history.Clear(map[domain.SlideID][]domain.Node{"c": nodes("c")}))
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, next, 1)
	assert.Empty(t, next["c"].Past)
	assert.Empty(t, next["c"].Future)
	assert.Equal(t, nodes("c"), next["c"].Present)

	// The old store is untouched.
	assert.Len(t, store, 2)
}

func TestReduce_OtherSlidesUntouched(t *testing.T) {
	r := reducer()
	store, _, _ := r.Reduce(history.Store[[]domain.Node]{}, history.Set("a", nodes("a1")))
	store, _, _ = r.Reduce(store, history.Set("b", nodes("b1")))
	before := store["b"]

	store, _, _ = r.Reduce(store, history.Set("a", nodes("a2")))
	store, _, err := r.Reduce(store, history.Undo[[]domain.Node]("a"))
	require.NoError(t, err)

	assert.Equal(t, before, store["b"])
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	r := reducer()
	store, _, _ := r.Reduce(history.Store[[]domain.Node]{}, history.Set("s", nodes("1")))
	store, _, _ = r.Reduce(store, history.Set("s", nodes("2")))
	snapshot := store["s"]

	// Two branches from the same snapshot must not share backing arrays.
	left, _, _ := r.Reduce(store, history.Set("s", nodes("left")))
	undone, _, _ := r.Reduce(store, history.Undo[[]domain.Node]("s"))
	right, _, _ := r.Reduce(undone, history.Set("s", nodes("right")))

	assert.Equal(t, snapshot, store["s"])
	assert.Equal(t, nodes("2"), left["s"].Past[len(left["s"].Past)-1])
	assert.Equal(t, nodes("1"), right["s"].Past[len(right["s"].Past)-1])
}

func TestReduce_UnguardedUndoOnEmptyPast(t *testing.T) {
	r := reducer()
	store, _, _ := r.Reduce(history.Store[[]domain.Node]{}, history.Clear(map[domain.SlideID][]domain.Node{"s": nodes("x")}))

	next, _, err := r.Reduce(store, history.Undo[[]domain.Node]("s"))
	require.NoError(t, err)
	assert.Nil(t, next["s"].Present)
	assert.Equal(t, [][]domain.Node{nodes("x")}, next["s"].Future)
}

func TestReduce_Limit(t *testing.T) {
	r := history.Reducer[int]{Equal: func(a, b int) bool { return a == b }, Limit: 3}
	store := history.Store[int]{}
	for i := 1; i <= 10; i++ {
		store, _, _ = r.Reduce(store, history.Set("s", i))
	}
	assert.Equal(t, []int{7, 8, 9}, store["s"].Past)
	assert.Equal(t, 10, store["s"].Present)
}

func TestReduce_UnsupportedAction(t *testing.T) {
	r := reducer()
	store, _, _ := r.Reduce(history.Store[[]domain.Node]{}, history.Set("s", nodes("x")))
	_, _, err := r.Reduce(store, history.Action[[]domain.Node]{Type: "rewind", SlideID: "s"})
	assert.ErrorIs(t, err, history.ErrUnsupportedAction)
}
