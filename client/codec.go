package client

import "encoding/json"

// Codec is the structured-body capability. The engine never interprets
// JSON itself; callers may plug in their own implementation.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type jsonCodec struct{}

var _ Codec = jsonCodec{}

func (jsonCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
