package main

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshots go out 60 times a second per room, so they use msgpack
// binary frames instead of JSON. Field names reuse the json tags so
// both encodings agree on the wire vocabulary.

// EncodeSnapshot serializes a session snapshot to msgpack
func EncodeSnapshot(snap GameSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes a msgpack session snapshot
func DecodeSnapshot(data []byte) (GameSnapshot, error) {
	var snap GameSnapshot
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	err := dec.Decode(&snap)
	return snap, err
}
