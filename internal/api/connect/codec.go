// Package connect provides Connect RPC service implementations.
package connect

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// codecName replaces connect's built-in protobuf JSON codec, which only
// accepts generated messages.
const codecName = "json"

// jsonCodec encodes plain Go messages with encoding/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSONCodec returns the option that registers the JSON codec with a client or handler.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
