package core

// Split partitions segs by keep, preserving the original order in both
// halves. The returned slices share no backing array with segs.
func Split(segs []Segment, keep func(Segment) bool) (kept, dropped []Segment) {
	kept = make([]Segment, 0, len(segs))
	for _, s := range segs {
		if keep(s) {
			kept = append(kept, s)
		} else {
			dropped = append(dropped, s)
		}
	}
	return kept, dropped
}

// Assemble concatenates head, the data of every segment and tail into one
// freshly allocated buffer of exactly the right size.
func Assemble(head []byte, segs []Segment, tail []byte) []byte {
	n := len(head) + len(tail)
	for _, s := range segs {
		n += len(s.Data)
	}
	out := make([]byte, 0, n)
	out = append(out, head...)
	for _, s := range segs {
		out = append(out, s.Data...)
	}
	return append(out, tail...)
}

// Tags returns the Tag of every segment, in order.
func Tags(segs []Segment) []string {
	tags := make([]string, len(segs))
	for i, s := range segs {
		tags[i] = s.Tag
	}
	return tags
}
