package matchspy

import (
	"iter"
	"sort"
)

// Document is the part of a matched document a spy looks at: its id and its
// value slots.
type Document struct {
	ID     string            `json:"id"`
	Values map[string]string `json:"values"`
}

// ValueCountSpy counts, for one value slot, how many observed documents carry
// each distinct value. Documents with an empty value in the slot are counted
// in Total but not in any value. A spy belongs to a single search and is not
// safe for concurrent use.
type ValueCountSpy struct {
	slot   string
	total  int
	counts map[string]int
}

func NewValueCountSpy(slot string) *ValueCountSpy {
	return &ValueCountSpy{
		slot:   slot,
		counts: make(map[string]int),
	}
}

// Observe records one matched document.
func (s *ValueCountSpy) Observe(doc Document) {
	s.total++
	v := doc.Values[s.slot]
	if v == "" {
		return
	}
	s.counts[v]++
}

func (s *ValueCountSpy) Slot() string {
	return s.slot
}

// Total is the number of documents observed.
func (s *ValueCountSpy) Total() int {
	return s.total
}

// Values yields every distinct value in ascending value order.
func (s *ValueCountSpy) Values() iter.Seq[Item] {
	items := s.items()
	sort.Slice(items, func(i, j int) bool {
		return items[i].Payload < items[j].Payload
	})
	return yieldAll(items)
}

// TopValues yields at most maxValues values, most frequent first. Equal
// frequencies are ordered by value.
func (s *ValueCountSpy) TopValues(maxValues int) iter.Seq[Item] {
	items := s.items()
	sort.Slice(items, func(i, j int) bool {
		if items[i].Frequency != items[j].Frequency {
			return items[i].Frequency > items[j].Frequency
		}
		return items[i].Payload < items[j].Payload
	})
	return take(yieldAll(items), maxValues)
}

func (s *ValueCountSpy) items() []Item {
	items := make([]Item, 0, len(s.counts))
	for v, n := range s.counts {
		items = append(items, Item{Payload: v, Frequency: n})
	}
	return items
}

func yieldAll(items []Item) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}
