package pipeline

import (
	"encoding/json"
	"fmt"
	"sync"
)

// StageRecord is the persisted form of a fitted stage.
type StageRecord struct {
	Kind  string          `json:"kind"`
	State json.RawMessage `json:"state"`
}

// DecodeFunc rebuilds a fitted stage from its JSON state.
type DecodeFunc func(state []byte) (Transformer, error)

// Codec encodes fitted stages and decodes them by kind.
type Codec struct {
	mu       sync.RWMutex
	decoders map[string]DecodeFunc
}

// NewCodec creates a codec and applies the given registrations.
func NewCodec(registrations ...func(*Codec)) *Codec {
	c := &Codec{decoders: map[string]DecodeFunc{}}
	for _, reg := range registrations {
		reg(c)
	}
	return c
}

// Register adds a decoder for kind, replacing any previous one.
func (c *Codec) Register(kind string, fn DecodeFunc) {
	c.mu.Lock()
	c.decoders[kind] = fn
	c.mu.Unlock()
}

// Knows reports whether kind can be decoded.
func (c *Codec) Knows(kind string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.decoders[kind]
	return ok
}

// Encode serializes a fitted stage.
func (c *Codec) Encode(t Transformer) (StageRecord, error) {
	state, err := json.Marshal(t)
	if err != nil {
		return StageRecord{}, fmt.Errorf("encode %s: %w", t.Kind(), err)
	}
	return StageRecord{Kind: t.Kind(), State: state}, nil
}

// Decode rebuilds a fitted stage.
func (c *Codec) Decode(rec StageRecord) (Transformer, error) {
	c.mu.RLock()
	fn, ok := c.decoders[rec.Kind]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
	t, err := fn(rec.State)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rec.Kind, err)
	}
	return t, nil
}

// EncodeModel serializes every stage of m in order.
func (c *Codec) EncodeModel(m *Model) ([]StageRecord, error) {
	out := make([]StageRecord, 0, len(m.stages))
	for _, t := range m.stages {
		rec, err := c.Encode(t)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeModel rebuilds a model from its stage records.
func (c *Codec) DecodeModel(recs []StageRecord) (*Model, error) {
	stages := make([]Transformer, 0, len(recs))
	for _, rec := range recs {
		t, err := c.Decode(rec)
		if err != nil {
			return nil, err
		}
		stages = append(stages, t)
	}
	return NewModel(stages...), nil
}

// DecodeJSON is a DecodeFunc helper for stages whose JSON form is the struct
// itself. Stages implementing Validator are checked after decoding.
func DecodeJSON[T any, PT interface {
	*T
	Transformer
}](state []byte) (Transformer, error) {
	var v T
	if err := json.Unmarshal(state, &v); err != nil {
		return nil, err
	}
	t := PT(&v)
	if val, ok := any(t).(Validator); ok {
		if err := val.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
		}
	}
	return t, nil
}
