package features

import (
	"github.com/okian/lyrics/internal/domain/pipeline"
)

// Register adds the feature stage decoders to c.
func Register(c *pipeline.Codec) {
	c.Register(KindCleanser, func([]byte) (pipeline.Transformer, error) { return NewCleanser(), nil })
	c.Register(KindTokenizer, decodeTokenizer)
	c.Register(KindHashingTF, pipeline.DecodeJSON[HashingTFModel])
	c.Register(KindIDF, pipeline.DecodeJSON[IDFModel])
}

// Default returns the standard feature stages in pipeline order.
func Default() []pipeline.Stage {
	return []pipeline.Stage{
		NewCleanser(),
		NewTokenizer(""),
		NewHashingTF(DefaultNumFeatures),
		NewIDF(0),
	}
}
