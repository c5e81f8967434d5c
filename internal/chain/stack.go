package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// Stack item types as reported by invokefunction.
const (
	TypeArray     = "Array"
	TypeBoolean   = "Boolean"
	TypeInteger   = "Integer"
	TypeByteArray = "ByteArray"
	TypeString    = "String"
)

// StackItem is one entry of a VM result stack. Value is kept raw because its
// JSON shape depends on Type.
type StackItem struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// InvokeResult is the result object of an invokefunction call.
type InvokeResult struct {
	Script      string      `json:"script"`
	State       string      `json:"state"`
	GasConsumed string      `json:"gas_consumed"`
	Stack       []StackItem `json:"stack"`
}

func NewIntegerItem(v int64) StackItem {
	return StackItem{Type: TypeInteger, Value: mustRaw(strconv.FormatInt(v, 10))}
}

func NewStringItem(v string) StackItem {
	return StackItem{Type: TypeString, Value: mustRaw(v)}
}

func NewByteArrayItem(v []byte) StackItem {
	return StackItem{Type: TypeByteArray, Value: mustRaw(hex.EncodeToString(v))}
}

func NewBooleanItem(v bool) StackItem {
	return StackItem{Type: TypeBoolean, Value: mustRaw(v)}
}

func NewArrayItem(items ...StackItem) StackItem {
	if items == nil {
		items = []StackItem{}
	}
	return StackItem{Type: TypeArray, Value: mustRaw(items)}
}

// AsArray decodes an Array item.
func (s StackItem) AsArray() ([]StackItem, error) {
	if s.Type != TypeArray {
		return nil, fmt.Errorf("stack item is %s, not Array", s.Type)
	}
	var items []StackItem
	if err := json.Unmarshal(s.Value, &items); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return items, nil
}

// AsInteger reads Integer (decimal), ByteArray (little-endian two's complement)
// and Boolean items.
func (s StackItem) AsInteger() (*big.Int, error) {
	switch s.Type {
	case TypeInteger:
		raw, err := s.text()
		if err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil
	case TypeByteArray:
		raw, err := s.text()
		if err != nil {
			return nil, err
		}
		b, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid byte array hex: %w", err)
		}
		return fromLittleEndian(b), nil
	case TypeBoolean:
		v, err := s.AsBool()
		if err != nil {
			return nil, err
		}
		if v {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	default:
		return nil, fmt.Errorf("stack item %s is not an integer", s.Type)
	}
}

// AsString reads ByteArray items as hex-encoded UTF-8 and String items verbatim.
func (s StackItem) AsString() (string, error) {
	raw, err := s.text()
	if err != nil {
		return "", err
	}

	switch s.Type {
	case TypeString:
		return raw, nil
	case TypeByteArray:
		b, err := hex.DecodeString(raw)
		if err != nil {
			return "", fmt.Errorf("invalid byte array hex: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("stack item %s is not a string", s.Type)
	}
}

// AsBool reads Boolean items (JSON bool or "true"/"false") and treats Integer
// and ByteArray items as true when non-zero.
func (s StackItem) AsBool() (bool, error) {
	if s.Type != TypeBoolean {
		n, err := s.AsInteger()
		if err != nil {
			return false, err
		}
		return n.Sign() != 0, nil
	}

	var b bool
	if err := json.Unmarshal(s.Value, &b); err == nil {
		return b, nil
	}
	raw, err := s.text()
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
	return v, nil
}

func (s StackItem) text() (string, error) {
	var v string
	if err := json.Unmarshal(s.Value, &v); err != nil {
		// Some nodes emit integers as bare JSON numbers.
		var n json.Number
		if errNum := json.Unmarshal(s.Value, &n); errNum == nil {
			return n.String(), nil
		}
		return "", fmt.Errorf("decode %s value: %w", s.Type, err)
	}
	return v, nil
}

func fromLittleEndian(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	be := make([]byte, len(b))
	for i := range b {
		be[len(b)-1-i] = b[i]
	}
	n := new(big.Int).SetBytes(be)
	if be[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}

func toLittleEndian(n *big.Int) []byte {
	if n.Sign() == 0 {
		return nil
	}

	size := len(n.Bytes()) + 1
	var be []byte
	if n.Sign() > 0 {
		be = make([]byte, size)
		n.FillBytes(be)
	} else {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(size*8))
		be = new(big.Int).Add(mod, n).FillBytes(make([]byte, size))
	}

	// trim redundant sign bytes
	for len(be) > 1 {
		if (be[0] == 0x00 && be[1]&0x80 == 0) || (be[0] == 0xff && be[1]&0x80 != 0) {
			be = be[1:]
			continue
		}
		break
	}

	le := make([]byte, len(be))
	for i := range be {
		le[len(be)-1-i] = be[i]
	}
	return le
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
