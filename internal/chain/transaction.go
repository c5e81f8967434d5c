package chain

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/ripemd160"
)

const (
	invocationType    byte = 0xd1
	invocationVersion byte = 1

	attrScript byte = 0x20
	attrRemark byte = 0xf0

	// Fixed8 is the number of base units in one asset unit.
	Fixed8 = 100_000_000
)

// GasAssetID is the utility token system fee is paid in.
const GasAssetID = "602c79718b16e442de58778e148d0b1084e3b2dffd5de6b7b16cee7969282de7"

var ErrInsufficientFunds = errors.New("insufficient funds")

type TransactionAttribute struct {
	Usage byte
	Data  []byte
}

type TransactionInput struct {
	PrevHash  string
	PrevIndex uint16
}

// TransactionOutput is a transfer intent. Value is in Fixed8 units and
// ScriptHash is the recipient's 20 byte script hash in big-endian hex.
type TransactionOutput struct {
	AssetID    string `json:"asset_id"`
	Value      int64  `json:"value"`
	ScriptHash string `json:"script_hash"`
}

type Witness struct {
	Invocation   []byte
	Verification []byte
}

// InvocationTransaction carries a VM script plus the inputs and outputs that
// pay for it.
type InvocationTransaction struct {
	Script     []byte
	Gas        int64
	Attributes []TransactionAttribute
	Inputs     []TransactionInput
	Outputs    []TransactionOutput
	Witnesses  []Witness
}

// VerificationScript is the single-signature witness script of publicKey.
func VerificationScript(publicKey string) ([]byte, error) {
	pub, err := hex.DecodeString(publicKey)
	if err != nil {
		return nil, fmt.Errorf("public key hex: %w", err)
	}
	if len(pub) == 0 || len(pub) > int(opPushBytes75) {
		return nil, fmt.Errorf("public key of %d bytes", len(pub))
	}
	out := append([]byte{byte(len(pub))}, pub...)
	return append(out, opCheckSig), nil
}

// ScriptHashFromPublicKey is RIPEMD160(SHA256(verification script)) in
// big-endian hex. Outputs and the sender attribute are addressed by it.
func ScriptHashFromPublicKey(publicKey string) (string, error) {
	vs, err := VerificationScript(publicKey)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(vs)
	h := ripemd160.New()
	h.Write(sum[:])
	return hex.EncodeToString(reverse(h.Sum(nil))), nil
}

// BuildInvocation selects unspent coins from balance to cover gas and every
// intent, returning change to the sender script hash.
func BuildInvocation(script []byte, sender string, balance *Balance, gas int64, intents []TransactionOutput) (*InvocationTransaction, error) {
	if len(script) == 0 {
		return nil, errors.New("empty script")
	}
	if gas < 0 {
		return nil, fmt.Errorf("negative gas %d", gas)
	}
	senderWire, err := decodeHash20(sender)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}

	tx := &InvocationTransaction{Script: script, Gas: gas}

	required := map[string]int64{}
	var order []string
	need := func(asset string, v int64) {
		asset = normalizeHash(asset)
		if _, ok := required[asset]; !ok {
			order = append(order, asset)
		}
		required[asset] += v
	}
	for _, out := range intents {
		if out.Value <= 0 {
			return nil, fmt.Errorf("intent to %s has non-positive value", out.ScriptHash)
		}
		if _, err := decodeHash20(out.ScriptHash); err != nil {
			return nil, fmt.Errorf("intent: %w", err)
		}
		need(out.AssetID, out.Value)
		tx.Outputs = append(tx.Outputs, out)
	}
	if gas > 0 {
		need(GasAssetID, gas)
	}

	for _, asset := range order {
		inputs, change, err := selectCoins(balance, asset, required[asset])
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, inputs...)
		if change > 0 {
			tx.Outputs = append(tx.Outputs, TransactionOutput{AssetID: asset, Value: change, ScriptHash: normalizeHash(sender)})
		}
	}

	// Free invocations have no inputs and would hash identically for the same script.
	if len(tx.Inputs) == 0 {
		nonce := make([]byte, 8)
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("remark nonce: %w", err)
		}
		tx.Attributes = append(tx.Attributes,
			TransactionAttribute{Usage: attrScript, Data: senderWire},
			TransactionAttribute{Usage: attrRemark, Data: nonce},
		)
	}

	return tx, nil
}

func selectCoins(balance *Balance, asset string, amount int64) ([]TransactionInput, int64, error) {
	if balance == nil {
		return nil, 0, fmt.Errorf("%w: no balance for asset %s", ErrInsufficientFunds, asset)
	}
	var (
		inputs []TransactionInput
		sum    int64
	)
	for _, ab := range balance.Assets {
		if normalizeHash(ab.AssetHash) != asset {
			continue
		}
		for _, u := range ab.Unspent {
			if sum >= amount {
				break
			}
			inputs = append(inputs, TransactionInput{PrevHash: u.TxID, PrevIndex: u.N})
			sum += toFixed8(u.Value)
		}
	}
	if sum < amount {
		return nil, 0, fmt.Errorf("%w: asset %s needs %d, have %d", ErrInsufficientFunds, asset, amount, sum)
	}
	return inputs, sum - amount, nil
}

// AddWitness attaches a single-signature witness for publicKey.
func (tx *InvocationTransaction) AddWitness(signature, publicKey string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("signature hex: %w", err)
	}
	if len(sig) > int(opPushBytes75) {
		return errors.New("signature too long")
	}
	verification, err := VerificationScript(publicKey)
	if err != nil {
		return err
	}

	invocation := append([]byte{byte(len(sig))}, sig...)
	tx.Witnesses = append(tx.Witnesses, Witness{Invocation: invocation, Verification: verification})
	return nil
}

// Hash is the reversed double SHA-256 of the unsigned serialization. It is
// both the transaction id and the message that gets signed.
func (tx *InvocationTransaction) Hash() (string, error) {
	unsigned, err := tx.serialize(false)
	if err != nil {
		return "", err
	}
	first := sha256.Sum256(unsigned)
	second := sha256.Sum256(first[:])
	return hex.EncodeToString(reverse(second[:])), nil
}

// Serialize returns the signed transaction as hex, ready for sendrawtransaction.
func (tx *InvocationTransaction) Serialize() (string, error) {
	b, err := tx.serialize(true)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (tx *InvocationTransaction) serialize(signed bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(invocationType)
	buf.WriteByte(invocationVersion)
	writeVarBytes(&buf, tx.Script)
	_ = binary.Write(&buf, binary.LittleEndian, tx.Gas)

	writeVarInt(&buf, uint64(len(tx.Attributes)))
	for _, a := range tx.Attributes {
		buf.WriteByte(a.Usage)
		switch a.Usage {
		case attrScript:
			if len(a.Data) != 20 {
				return nil, fmt.Errorf("script attribute must be 20 bytes, got %d", len(a.Data))
			}
			buf.Write(a.Data)
		default:
			writeVarBytes(&buf, a.Data)
		}
	}

	writeVarInt(&buf, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		h, err := decodeHash32(in.PrevHash)
		if err != nil {
			return nil, fmt.Errorf("input: %w", err)
		}
		buf.Write(h)
		_ = binary.Write(&buf, binary.LittleEndian, in.PrevIndex)
	}

	writeVarInt(&buf, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		h, err := decodeHash32(out.AssetID)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		buf.Write(h)
		_ = binary.Write(&buf, binary.LittleEndian, out.Value)
		sh, err := decodeHash20(out.ScriptHash)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		buf.Write(sh)
	}

	if signed {
		writeVarInt(&buf, uint64(len(tx.Witnesses)))
		for _, w := range tx.Witnesses {
			writeVarBytes(&buf, w.Invocation)
			writeVarBytes(&buf, w.Verification)
		}
	}
	return buf.Bytes(), nil
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		_ = binary.Write(buf, binary.LittleEndian, uint16(v))
	case v <= 0xffffffff:
		buf.WriteByte(0xfe)
		_ = binary.Write(buf, binary.LittleEndian, uint32(v))
	default:
		buf.WriteByte(0xff)
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
}

func writeVarBytes(buf *bytes.Buffer, b []byte) {
	writeVarInt(buf, uint64(len(b)))
	buf.Write(b)
}

// decodeHash32 parses a big-endian 32 byte hash into wire (little-endian) order.
func decodeHash32(h string) ([]byte, error) {
	b, err := hex.DecodeString(normalizeHash(h))
	if err != nil {
		return nil, fmt.Errorf("hash %q: %w", h, err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("hash %q: want 32 bytes, got %d", h, len(b))
	}
	return reverse(b), nil
}

// decodeHash20 parses a big-endian script hash into wire order.
func decodeHash20(h string) ([]byte, error) {
	b, err := ParseScriptHash(normalizeHash(h))
	if err != nil {
		return nil, err
	}
	return reverse(b), nil
}

func normalizeHash(h string) string {
	return strings.ToLower(strings.TrimPrefix(h, "0x"))
}

func toFixed8(v float64) int64 {
	return int64(math.Round(v * Fixed8))
}
