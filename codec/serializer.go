package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Data is the application-level session mapping.
type Data = map[string]any

// Serializer converts session data to and from bytes.
//
// The set of implementations is closed: [JSONSerializer] and [MsgpackSerializer].
type Serializer interface {
	Marshal(data Data) ([]byte, error)
	Unmarshal(payload []byte) (Data, error)
	Name() string
}

const (
	// SerializerJSON selects [JSONSerializer].
	SerializerJSON = "json"
	// SerializerMsgpack selects [MsgpackSerializer].
	SerializerMsgpack = "msgpack"
)

// SerializerByName returns the serializer registered under name.
func SerializerByName(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SerializerJSON:
		return JSONSerializer{}, nil
	case SerializerMsgpack:
		return MsgpackSerializer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSerializer, name)
	}
}

// JSONSerializer encodes session data as compact JSON. Numbers decode as float64.
type JSONSerializer struct{}

func (JSONSerializer) Name() string { return SerializerJSON }

func (JSONSerializer) Marshal(data Data) ([]byte, error) {
	if data == nil {
		data = Data{}
	}
	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return out, nil
}

func (JSONSerializer) Unmarshal(payload []byte) (Data, error) {
	var out Data
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if out == nil {
		// "null" is valid JSON but not a mapping.
		out = Data{}
	}
	return out, nil
}

// MsgpackSerializer encodes session data as MessagePack.
//
// Decoding is loose: integers come back as int64 or uint64 and floats as float64,
// nested maps as map[string]any.
type MsgpackSerializer struct{}

func (MsgpackSerializer) Name() string { return SerializerMsgpack }

func (MsgpackSerializer) Marshal(data Data) ([]byte, error) {
	if data == nil {
		data = Data{}
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

func (MsgpackSerializer) Unmarshal(payload []byte) (Data, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.UseLooseInterfaceDecoding(true)

	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	switch m := v.(type) {
	case nil:
		return Data{}, nil
	case map[string]interface{}:
		return m, nil
	default:
		return nil, fmt.Errorf("%w: payload is %T, not a mapping", ErrSerialization, v)
	}
}
