package contracts

import (
	"testing"

	"github.com/digitalme/backend/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stack(items ...chain.StackItem) *chain.InvokeResult {
	return &chain.InvokeResult{State: "HALT", Stack: items}
}

func TestExtractResult(t *testing.T) {
	tests := []struct {
		name    string
		res     *chain.InvokeResult
		success bool
		payload string
		errMsg  string
	}{
		{
			name:    "flagged success",
			res:     stack(chain.NewArrayItem(chain.NewIntegerItem(1), chain.NewStringItem("hello"))),
			success: true,
			payload: "hello",
		},
		{
			name:   "flagged failure",
			res:    stack(chain.NewArrayItem(chain.NewIntegerItem(0), chain.NewStringItem("boom"))),
			errMsg: "boom",
		},
		{
			name:   "failure message as byte array",
			res:    stack(chain.NewArrayItem(chain.NewIntegerItem(0), chain.NewByteArrayItem([]byte("boom")))),
			errMsg: "boom",
		},
		{
			name:    "flag as byte array",
			res:     stack(chain.NewArrayItem(chain.NewByteArrayItem([]byte{0x01}), chain.NewStringItem("ok"))),
			success: true,
			payload: "ok",
		},
		{
			name:    "bare payload",
			res:     stack(chain.NewByteArrayItem([]byte("Acme Issuer"))),
			success: true,
			payload: "Acme Issuer",
		},
		{
			name:   "array of three",
			res:    stack(chain.NewArrayItem(chain.NewIntegerItem(1), chain.NewStringItem("a"), chain.NewStringItem("b"))),
			errMsg: FailedMessage,
		},
		{
			name:   "flag is not a number",
			res:    stack(chain.NewArrayItem(chain.NewArrayItem(), chain.NewStringItem("a"))),
			errMsg: FailedMessage,
		},
		{
			name:   "empty stack",
			res:    stack(),
			errMsg: FailedMessage,
		},
		{
			name:   "two entries",
			res:    stack(chain.NewIntegerItem(1), chain.NewIntegerItem(1)),
			errMsg: FailedMessage,
		},
		{
			name:   "nil response",
			res:    nil,
			errMsg: FailedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ExtractResult(tt.res)
			assert.Equal(t, tt.success, out.Success)
			if !tt.success {
				assert.Equal(t, tt.errMsg, out.Error)
				assert.Nil(t, out.Result)
				return
			}
			assert.Empty(t, out.Error)
			s, err := out.AsString()
			require.NoError(t, err)
			assert.Equal(t, tt.payload, s)
		})
	}
}

func TestInvocationResultAsBool(t *testing.T) {
	out := ExtractResult(stack(chain.NewBooleanItem(true)))
	ok, err := out.AsBool()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = InvocationResult{}.AsBool()
	require.NoError(t, err)
	assert.False(t, ok)
}
