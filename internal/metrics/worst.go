package metrics

import (
	"container/heap"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const worstCount = 3

type worstItem[T any] struct {
	ngram T
	cost  float64
}

// worstHeap is a min-heap on cost so the cheapest kept item is evicted first.
type worstHeap[T any] []worstItem[T]

func (h worstHeap[T]) Len() int           { return len(h) }
func (h worstHeap[T]) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h worstHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstHeap[T]) Push(x any) {
	*h = append(*h, x.(worstItem[T]))
}

func (h *worstHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// worstSet keeps the k most expensive n-grams seen so far.
type worstSet[T any] struct {
	k     int
	items worstHeap[T]
}

func newWorstSet[T any](k int) *worstSet[T] {
	return &worstSet[T]{k: k, items: make(worstHeap[T], 0, k+1)}
}

func (w *worstSet[T]) offer(ngram T, cost float64) {
	if len(w.items) == w.k && cost <= w.items[0].cost {
		return
	}
	heap.Push(&w.items, worstItem[T]{ngram: ngram, cost: cost})
	if len(w.items) > w.k {
		heap.Pop(&w.items)
	}
}

// sorted returns the kept items, most expensive first.
func (w *worstSet[T]) sorted() []worstItem[T] {
	out := make([]worstItem[T], len(w.items))
	copy(out, w.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].cost > out[j].cost })
	return out
}

func (w *worstSet[T]) message(kind string, total, withModifier float64, label func(T) string) string {
	var msgs []string
	var worst []string
	for _, item := range w.sorted() {
		if item.cost <= 0 {
			continue
		}
		worst = append(worst, fmt.Sprintf("%s (%5.2f%%)", label(item.ngram), 100*item.cost/total))
	}
	if len(worst) > 0 {
		msgs = append(msgs, fmt.Sprintf("Worst %s: %s", kind, strings.Join(worst, ", ")))
	}
	if total > 0 {
		msgs = append(msgs, fmt.Sprintf("%5.2f%% of cost involved a modifier", 100*withModifier/total))
	}
	return strings.Join(msgs, ";  ")
}

func escapeSymbol(r rune) string {
	q := strconv.QuoteRune(r)
	return q[1 : len(q)-1]
}
