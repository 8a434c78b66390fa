package filter

import (
	"fmt"

	"github.com/robert-malhotra/hdf5kit/internal/message"
)

// Pipeline is an ordered list of filters. Position i in the pipeline
// corresponds to bit i of a chunk's filter mask.
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds the pipeline described by fp. A nil fp gives an
// empty pipeline.
func NewPipeline(fp *message.FilterPipeline, elemSize int) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	p.filters = make([]Filter, len(fp.Filters))
	for i, info := range fp.Filters {
		f, err := New(info, elemSize)
		if err != nil {
			return nil, err
		}
		p.filters[i] = f
	}
	return p, nil
}

// Encode runs every filter in order. The returned mask has a bit set for
// each optional filter that was unavailable.
func (p *Pipeline) Encode(input []byte) ([]byte, uint32, error) {
	data := input
	var mask uint32
	for i, f := range p.filters {
		if f == nil {
			mask |= 1 << uint(i)
			continue
		}
		var err error
		if data, err = f.Encode(data); err != nil {
			return nil, 0, fmt.Errorf("%s encode: %w", Name(f.ID()), err)
		}
	}
	return data, mask, nil
}

// Decode undoes the pipeline, last filter first, skipping the filters
// set in mask.
func (p *Pipeline) Decode(input []byte, mask uint32) ([]byte, error) {
	data := input
	for i := len(p.filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		f := p.filters[i]
		if f == nil {
			return nil, fmt.Errorf("optional filter %d was applied but is not available", i)
		}
		var err error
		if data, err = f.Decode(data); err != nil {
			return nil, fmt.Errorf("%s decode: %w", Name(f.ID()), err)
		}
	}
	return data, nil
}

// Empty reports whether the pipeline has no filters.
func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }

// Len returns the number of filters.
func (p *Pipeline) Len() int { return len(p.filters) }
