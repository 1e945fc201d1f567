package blocks

import (
	"sync"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/tagstore"
	"github.com/flowradio/blockrt/pkg/tagvalue"
)

// TaggingSource is a Source that additionally attaches one tag at a fixed
// absolute offset, for exercising tag propagation through downstream
// blocks.
type TaggingSource struct {
	*Source

	TagOffset uint64
	TagKey    string
	TagValue  tagvalue.Value

	attached bool
}

// NewTaggingSource constructs a TaggingSource emitting limit items and
// attaching (key, value) at offset once production reaches it.
func NewTaggingSource(name string, limit int, offset uint64, key string, value tagvalue.Value) *TaggingSource {
	return &TaggingSource{
		Source:    NewSource(name, limit),
		TagOffset: offset,
		TagKey:    key,
		TagValue:  value,
	}
}

func (s *TaggingSource) GeneralWork(io *block.IO) int {
	before := io.NitemsWritten(0)
	ret := s.Source.GeneralWork(io)
	after := io.NitemsWritten(0)

	if !s.attached && s.TagOffset >= before && s.TagOffset < after {
		_ = io.AddItemTag(0, s.TagOffset, s.TagKey, s.TagValue, s.Name())
		s.attached = true
	}
	return ret
}

// TaggingSink is a Sink that also records every tag visible on its input
// each call, in the style of a block using get_tags_in_range to react to
// out-of-band annotations instead of discarding them.
type TaggingSink struct {
	*Sink

	mu   sync.Mutex
	tags []tagstore.Tag
}

// NewTaggingSink constructs a tag-recording Sink.
func NewTaggingSink(name string) *TaggingSink {
	return &TaggingSink{Sink: NewSink(name)}
}

func (s *TaggingSink) GeneralWork(io *block.IO) int {
	n := io.Inputs[0].N()
	if n > 0 {
		lo := io.NitemsRead(0)
		hi := lo + uint64(n)
		seen := io.GetTagsInRange(0, lo, hi, "")
		s.mu.Lock()
		s.tags = append(s.tags, seen...)
		s.mu.Unlock()
	}

	return s.Sink.GeneralWork(io)
}

// Tags returns every tag observed so far, in the order GetTagsInRange
// returned them.
func (s *TaggingSink) Tags() []tagstore.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tagstore.Tag(nil), s.tags...)
}
