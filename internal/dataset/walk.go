package dataset

import "iter"

// Entry is one property-set visited by Walk.
type Entry struct {
	Phenomenon  string
	PropertySet string
	Set         *PropertySet
}

// Walk yields every property-set of every phenomenon in stored order.
func (d *Dataset) Walk() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, p := range d.Phenomena() {
			for _, ps := range p.PropertySets() {
				if !yield(Entry{Phenomenon: p.Name, PropertySet: ps.Name, Set: ps}) {
					return
				}
			}
		}
	}
}

// First returns the first property-set in walk order.
func (d *Dataset) First() (Entry, error) {
	for e := range d.Walk() {
		return e, nil
	}
	return Entry{}, ErrEmpty
}
