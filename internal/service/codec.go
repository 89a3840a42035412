package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec encodes messages as plain JSON. The API's messages are Go structs
// rather than generated protobuf types, so every handler and client must be
// built with connect.WithCodec(JSONCodec{}).
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name implements connect.Codec. It replaces Connect's protojson codec.
func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
