// Package matchspy collects statistics about the documents a search matched.
//
// A ValueCountSpy observes matched documents and counts how many carry each
// distinct value in one value slot. An ArrayCountAggregator reads such counts
// where every value is a serialized list of terms, and turns them into one
// frequency per term.
package matchspy

import "iter"

// Item is one distinct value delivered by a ValueSource together with the
// frequency the source reports for it.
type Item struct {
	Payload   string
	Frequency int
}

// ValueSource is anything that can replay counted values, either all of them
// in its natural order or the highest ranked ones first.
type ValueSource interface {
	Values() iter.Seq[Item]
	TopValues(maxValues int) iter.Seq[Item]
}

// Term is a decoded term with its aggregated frequency. Wdf is carried for
// compatibility with term lists that report a within-document frequency; the
// aggregator always leaves it at zero.
type Term struct {
	Name      string `json:"term"`
	Wdf       int    `json:"wdf"`
	Frequency int    `json:"frequency"`
}

// take yields at most n items of seq.
func take[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		seen := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			seen++
			if seen >= n {
				return
			}
		}
	}
}
