package chain

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAddress = "EQTestAddress"
	testSender  = "5db11b50a18c68399d27b749bad80972d01c7b5b"
)

func testBalance() *Balance {
	return &Balance{
		Address: testAddress,
		Assets: []AssetBalance{{
			AssetHash: "0x" + GasAssetID,
			Asset:     "GAS",
			Amount:    1.5,
			Unspent: []Unspent{
				{TxID: strings.Repeat("ab", 32), N: 0, Value: 1},
				{TxID: strings.Repeat("cd", 32), N: 3, Value: 0.5},
			},
		}},
	}
}

func TestBuildInvocationFree(t *testing.T) {
	tx, err := BuildInvocation([]byte{0x00, 0xc1}, testSender, nil, 0, nil)
	require.NoError(t, err)

	assert.Empty(t, tx.Inputs)
	assert.Empty(t, tx.Outputs)
	require.Len(t, tx.Attributes, 2)
	assert.Equal(t, attrScript, tx.Attributes[0].Usage)
	assert.Equal(t, "5b7b1cd07209d8ba49b7279d39688ca1501bb15d", hex.EncodeToString(tx.Attributes[0].Data))
	assert.Equal(t, attrRemark, tx.Attributes[1].Usage)

	other, err := BuildInvocation([]byte{0x00, 0xc1}, testSender, nil, 0, nil)
	require.NoError(t, err)
	h1, err := tx.Hash()
	require.NoError(t, err)
	h2, err := other.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestBuildInvocationWithGas(t *testing.T) {
	tx, err := BuildInvocation([]byte{0x51}, testSender, testBalance(), Fixed8+Fixed8/4, nil)
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 2)
	assert.Equal(t, uint16(3), tx.Inputs[1].PrevIndex)
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, TransactionOutput{AssetID: GasAssetID, Value: Fixed8 / 4, ScriptHash: testSender}, tx.Outputs[0])
	assert.Empty(t, tx.Attributes)
}

func TestBuildInvocationInsufficientFunds(t *testing.T) {
	_, err := BuildInvocation([]byte{0x51}, testSender, testBalance(), 2*Fixed8, nil)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	intents := []TransactionOutput{{AssetID: strings.Repeat("11", 32), Value: 1, ScriptHash: strings.Repeat("22", 20)}}
	_, err = BuildInvocation([]byte{0x51}, testSender, testBalance(), 0, intents)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestBuildInvocationRejectsBadInput(t *testing.T) {
	_, err := BuildInvocation(nil, testSender, nil, 0, nil)
	assert.Error(t, err)
	_, err = BuildInvocation([]byte{0x51}, testSender, nil, -1, nil)
	assert.Error(t, err)
	_, err = BuildInvocation([]byte{0x51}, testAddress, nil, 0, nil)
	assert.Error(t, err)

	intents := []TransactionOutput{{AssetID: GasAssetID, Value: 1, ScriptHash: testAddress}}
	_, err = BuildInvocation([]byte{0x51}, testSender, testBalance(), 0, intents)
	assert.Error(t, err)
}

func TestTransactionHashIgnoresWitnesses(t *testing.T) {
	tx, err := BuildInvocation([]byte{0x51}, testSender, testBalance(), Fixed8, nil)
	require.NoError(t, err)

	before, err := tx.Hash()
	require.NoError(t, err)
	assert.Len(t, before, 64)

	require.NoError(t, tx.AddWitness(strings.Repeat("01", 64), strings.Repeat("02", 32)))
	after, err := tx.Hash()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	raw, err := tx.Serialize()
	require.NoError(t, err)
	b, err := hex.DecodeString(raw)
	require.NoError(t, err)
	assert.Equal(t, invocationType, b[0])
	assert.Equal(t, invocationVersion, b[1])
	assert.Equal(t, opCheckSig, b[len(b)-1])
}

func TestAddWitnessRejectsBadHex(t *testing.T) {
	tx := &InvocationTransaction{Script: []byte{0x51}}
	assert.Error(t, tx.AddWitness("zz", "02"))
	assert.Error(t, tx.AddWitness("01", "zz"))
}

func TestScriptHashFromPublicKey(t *testing.T) {
	h, err := ScriptHashFromPublicKey(strings.Repeat("02", 32))
	require.NoError(t, err)
	assert.Equal(t, testSender, h)

	_, err = ScriptHashFromPublicKey("zz")
	assert.Error(t, err)
	_, err = ScriptHashFromPublicKey("")
	assert.Error(t, err)
}

func TestSerializeOutputsAsScriptHash(t *testing.T) {
	tx, err := BuildInvocation([]byte{0x51}, testSender, testBalance(), Fixed8+Fixed8/4, nil)
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1)

	unsigned, err := tx.serialize(false)
	require.NoError(t, err)

	// asset id (32) + value (8) + script hash (20), nothing length-prefixed
	out := unsigned[len(unsigned)-60:]
	assetWire, err := decodeHash32(GasAssetID)
	require.NoError(t, err)
	assert.Equal(t, assetWire, out[:32])
	assert.Equal(t, "5b7b1cd07209d8ba49b7279d39688ca1501bb15d", hex.EncodeToString(out[40:]))
	assert.Equal(t, byte(1), unsigned[len(unsigned)-61], "one output")
}
