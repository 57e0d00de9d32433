package bptree_test

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/keycodec/pkg/bptree"
)

func TestBPlusTree_InsertAndSearch(t *testing.T) {
	testCases := map[string]struct {
		order  int
		keys   []int
		absent []int
	}{
		"empty tree": {
			order:  4,
			absent: []int{0, 1},
		},
		"single leaf": {
			order:  4,
			keys:   []int{3, 1, 2},
			absent: []int{0, 4},
		},
		"leaf split": {
			order:  3,
			keys:   []int{10, 20, 30, 40, 50},
			absent: []int{15, 60},
		},
		"internal split": {
			order:  3,
			keys:   []int{50, 10, 40, 20, 30, 60, 70, 5, 15, 25, 35, 45, 55, 65},
			absent: []int{0, 100},
		},
		"order below minimum": {
			order:  1,
			keys:   []int{5, 4, 3, 2, 1, 0},
			absent: []int{6},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tree := bptree.NewOrdered[int, string](tc.order)
			for _, k := range tc.keys {
				assert.True(t, tree.Insert(k, fmt.Sprint(k)))
			}
			assert.Equal(t, len(tc.keys), tree.Len())

			for _, k := range tc.keys {
				v, ok := tree.Search(k)
				require.True(t, ok, "key %d", k)
				assert.Equal(t, fmt.Sprint(k), v)
			}
			for _, k := range tc.absent {
				_, ok := tree.Search(k)
				assert.False(t, ok, "key %d", k)
			}
		})
	}
}

func TestBPlusTree_InsertReplaces(t *testing.T) {
	tree := bptree.NewOrdered[string, int](4)
	assert.True(t, tree.Insert("a", 1))
	assert.False(t, tree.Insert("a", 2))
	assert.Equal(t, 1, tree.Len())

	v, ok := tree.Search("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestBPlusTree_HeightGrows(t *testing.T) {
	tree := bptree.NewOrdered[int, int](3)
	assert.Equal(t, 1, tree.Height())
	for i := 0; i < 100; i++ {
		tree.Insert(i, i)
	}
	assert.Greater(t, tree.Height(), 2)
}

func TestBPlusTree_AscendInOrder(t *testing.T) {
	tree := bptree.NewOrdered[int, int](4)
	keys := rand.New(rand.NewSource(1)).Perm(500)
	for _, k := range keys {
		tree.Insert(k*2, k)
	}

	var all []int
	tree.AscendAll(func(k, _ int) bool {
		all = append(all, k)
		return true
	})
	require.Len(t, all, 500)
	assert.True(t, sort.IntsAreSorted(all))

	// from an absent key, the walk starts at the next one present
	var got []int
	tree.Ascend(101, func(k, _ int) bool {
		got = append(got, k)
		return len(got) < 3
	})
	assert.Equal(t, []int{102, 104, 106}, got)

	got = got[:0]
	tree.Ascend(2000, func(k, _ int) bool {
		got = append(got, k)
		return true
	})
	assert.Empty(t, got)
}

func TestBPlusTree_Delete(t *testing.T) {
	tree := bptree.NewOrdered[int, int](3)
	for i := 0; i < 50; i++ {
		tree.Insert(i, i)
	}

	for i := 0; i < 50; i += 2 {
		assert.True(t, tree.Delete(i))
	}
	assert.False(t, tree.Delete(0))
	assert.False(t, tree.Delete(99))
	assert.Equal(t, 25, tree.Len())

	for i := 0; i < 50; i++ {
		_, ok := tree.Search(i)
		assert.Equal(t, i%2 == 1, ok, "key %d", i)
	}

	var got []int
	tree.AscendAll(func(k, _ int) bool {
		got = append(got, k)
		return true
	})
	require.Len(t, got, 25)
	assert.Equal(t, 1, got[0])
	assert.Equal(t, 49, got[24])

	// deleted keys can come back
	assert.True(t, tree.Insert(10, 100))
	v, ok := tree.Search(10)
	require.True(t, ok)
	assert.Equal(t, 100, v)
}

func TestBPlusTree_ConcurrentInserts(t *testing.T) {
	tree := bptree.NewOrdered[int, int](bptree.DefaultOrder)
	const workers, perWorker = 8, 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := w*perWorker + i
				tree.Insert(k, k)
				if _, ok := tree.Search(k); !ok {
					t.Errorf("key %d missing right after insert", k)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, tree.Len())
	for k := 0; k < workers*perWorker; k++ {
		v, ok := tree.Search(k)
		require.True(t, ok)
		assert.Equal(t, k, v)
	}
}
