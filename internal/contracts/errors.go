package contracts

import (
	"errors"
	"fmt"

	"github.com/digitalme/backend/internal/chain"
)

var ErrTransactionSigningFailed = errors.New("transaction signing failed")

// ContractError means the contract call completed but reported failure.
// Raw is the undecoded node response.
type ContractError struct {
	Message string
	Raw     *chain.InvokeResult
}

func (e *ContractError) Error() string {
	return "contract error: " + e.Message
}

// TransactionFailedError means the node did not accept a signed transaction.
type TransactionFailedError struct {
	TxHash string
	Raw    any
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction failed: %s", e.TxHash)
}
