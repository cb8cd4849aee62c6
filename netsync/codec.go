package netsync

import (
	"fmt"

	"github.com/hashicorp/go-msgpack/v2/codec"
)

var handle = &codec.MsgpackHandle{}

// Encode serializes a record with msgpack.
func Encode(r MoveRecord) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, handle).Encode(r); err != nil {
		return nil, fmt.Errorf("netsync: encode record %d: %w", r.ID, err)
	}
	return b, nil
}

func Decode(b []byte) (MoveRecord, error) {
	var r MoveRecord
	if err := codec.NewDecoderBytes(b, handle).Decode(&r); err != nil {
		return MoveRecord{}, fmt.Errorf("netsync: decode record: %w", err)
	}
	return r, nil
}

// EncodeBatch serializes the records of one outbound tick.
func EncodeBatch(rs []MoveRecord) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, handle).Encode(rs); err != nil {
		return nil, fmt.Errorf("netsync: encode batch of %d: %w", len(rs), err)
	}
	return b, nil
}

func DecodeBatch(b []byte) ([]MoveRecord, error) {
	var rs []MoveRecord
	if err := codec.NewDecoderBytes(b, handle).Decode(&rs); err != nil {
		return nil, fmt.Errorf("netsync: decode batch: %w", err)
	}
	return rs, nil
}
