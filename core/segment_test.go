package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitAndAssemble(t *testing.T) {
	buf := []byte("AAbbbCCdd")
	segs := []Segment{
		{Tag: "A", Data: buf[0:2]},
		{Tag: "b", Data: buf[2:5]},
		{Tag: "C", Data: buf[5:7]},
		{Tag: "d", Data: buf[7:9]},
	}
	kept, dropped := Split(segs, func(s Segment) bool { return s.Tag == "A" || s.Tag == "C" })
	assert.Equal(t, []string{"A", "C"}, Tags(kept))
	assert.Equal(t, []string{"b", "d"}, Tags(dropped))

	out := Assemble([]byte("<"), kept, []byte(">"))
	assert.Equal(t, "<AACC>", string(out))
	assert.Equal(t, len(out), cap(out))
	assert.Equal(t, "AAbbbCCdd", string(buf), "source untouched")
}

func TestSplitKeepsNothing(t *testing.T) {
	kept, dropped := Split([]Segment{{Tag: "x"}}, func(Segment) bool { return false })
	assert.Empty(t, kept)
	assert.Len(t, dropped, 1)
	assert.Empty(t, Assemble(nil, kept, nil))
}

func TestUnchangedAndPassthrough(t *testing.T) {
	in := []byte{1, 2, 3}
	res, err := PassthroughStrategy{}.Strip(in)
	assert.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Same(t, &in[0], &res.Data[0])
	assert.Equal(t, Passthrough, PassthroughStrategy{}.Kind())
}
