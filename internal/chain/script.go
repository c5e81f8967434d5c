package chain

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// VM opcodes used when building invocation scripts.
const (
	opPush0       byte = 0x00
	opPushBytes75 byte = 0x4b
	opPushData1   byte = 0x4c
	opPushData2   byte = 0x4d
	opPushData4   byte = 0x4e
	opPushM1      byte = 0x4f
	opPush1       byte = 0x51
	opAppCall     byte = 0x67
	opTailCall    byte = 0x69
	opCheckSig    byte = 0xac
	opPack        byte = 0xc1
)

// ScriptBuilder assembles a VM script that calls a contract operation.
type ScriptBuilder struct {
	buf bytes.Buffer
}

func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{}
}

// EmitAppCall pushes params as a packed array (last argument first), then the
// operation name, then APPCALL (or TAILCALL) with the little-endian script hash.
func (sb *ScriptBuilder) EmitAppCall(scriptHash, operation string, params []ContractParam, useTailCall bool) error {
	hash, err := ParseScriptHash(scriptHash)
	if err != nil {
		return err
	}

	for i := len(params) - 1; i >= 0; i-- {
		if err := sb.emitParam(params[i]); err != nil {
			return fmt.Errorf("param %d: %w", i, err)
		}
	}
	sb.emitPushInt(big.NewInt(int64(len(params))))
	sb.buf.WriteByte(opPack)
	sb.emitPushBytes([]byte(operation))

	if useTailCall {
		sb.buf.WriteByte(opTailCall)
	} else {
		sb.buf.WriteByte(opAppCall)
	}
	sb.buf.Write(reverse(hash))
	return nil
}

func (sb *ScriptBuilder) Bytes() []byte {
	return append([]byte(nil), sb.buf.Bytes()...)
}

func (sb *ScriptBuilder) String() string {
	return hex.EncodeToString(sb.buf.Bytes())
}

func (sb *ScriptBuilder) emitParam(p ContractParam) error {
	switch p.Type {
	case TypeString:
		s, ok := p.Value.(string)
		if !ok {
			return fmt.Errorf("string param holds %T", p.Value)
		}
		sb.emitPushBytes([]byte(s))
	case TypeBoolean:
		b, ok := p.Value.(bool)
		if !ok {
			return fmt.Errorf("boolean param holds %T", p.Value)
		}
		if b {
			sb.buf.WriteByte(opPush1)
		} else {
			sb.buf.WriteByte(opPush0)
		}
	case TypeInteger:
		n, ok := p.Value.(int64)
		if !ok {
			return fmt.Errorf("integer param holds %T", p.Value)
		}
		sb.emitPushInt(big.NewInt(n))
	case TypeByteArray:
		s, ok := p.Value.(string)
		if !ok {
			return fmt.Errorf("byte array param holds %T", p.Value)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("byte array param: %w", err)
		}
		sb.emitPushBytes(b)
	default:
		return fmt.Errorf("unsupported param type %q", p.Type)
	}
	return nil
}

func (sb *ScriptBuilder) emitPushInt(n *big.Int) {
	switch {
	case n.Cmp(big.NewInt(-1)) == 0:
		sb.buf.WriteByte(opPushM1)
	case n.Sign() == 0:
		sb.buf.WriteByte(opPush0)
	case n.Sign() > 0 && n.Cmp(big.NewInt(16)) <= 0:
		sb.buf.WriteByte(opPush1 - 1 + byte(n.Int64()))
	default:
		sb.emitPushBytes(toLittleEndian(n))
	}
}

func (sb *ScriptBuilder) emitPushBytes(b []byte) {
	n := len(b)
	switch {
	case n == 0:
		sb.buf.WriteByte(opPush0)
		return
	case n <= int(opPushBytes75):
		sb.buf.WriteByte(byte(n))
	case n <= 0xff:
		sb.buf.WriteByte(opPushData1)
		sb.buf.WriteByte(byte(n))
	case n <= 0xffff:
		sb.buf.WriteByte(opPushData2)
		_ = binary.Write(&sb.buf, binary.LittleEndian, uint16(n))
	default:
		sb.buf.WriteByte(opPushData4)
		_ = binary.Write(&sb.buf, binary.LittleEndian, uint32(n))
	}
	sb.buf.Write(b)
}

// ParseScriptHash decodes a big-endian 20 byte contract hash, with or without 0x.
func ParseScriptHash(scriptHash string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(scriptHash, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid script hash %q: %w", scriptHash, err)
	}
	if len(b) != 20 {
		return nil, fmt.Errorf("invalid script hash %q: want 20 bytes, got %d", scriptHash, len(b))
	}
	return b, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
