// Package rpcjson provides a grpc.Codec that marshals request and response
// messages as JSON instead of protobuf. internal/rpc's cluster and admin
// services are hand-written Go structs rather than generated .pb.go types,
// so they ride grpc's codec-plugin mechanism (transport, multiplexing,
// deadline propagation, streaming all remain genuine grpc) with JSON as the
// wire format in place of protobuf.
package rpcjson

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype this codec registers under. A client and
// server both dialing/serving with grpc.CallContentSubtype(rpcjson.Name) /
// the default codec negotiate onto this codec instead of protobuf.
const Name = "json"

// codec implements encoding.Codec (formerly grpc.Codec) using
// encoding/json. Unlike the protobuf codec it has no proto.Message
// constraint: any exported Go struct can be sent over the wire.
type codec struct{}

func init() {
	encoding.RegisterCodec(codec{})
}

func (codec) Name() string {
	return Name
}

func (codec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcjson: marshal: %w", err)
	}
	return data, nil
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcjson: unmarshal: %w", err)
	}
	return nil
}
