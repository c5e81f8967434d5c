package contracts

import "github.com/digitalme/backend/internal/chain"

// FailedMessage is reported when a response does not follow the result protocol.
const FailedMessage = "Smart Contract failed!"

// InvocationResult is the normalized outcome of a contract call.
type InvocationResult struct {
	Success bool
	Result  *chain.StackItem
	Error   string
}

// ExtractResult decodes a contract response. A single Array entry of length
// two is read as [flag, payload-or-error] where flag 1 means success. A
// single entry of any other type is the payload itself. Anything else is a
// failure.
func ExtractResult(res *chain.InvokeResult) InvocationResult {
	failed := InvocationResult{Error: FailedMessage}
	if res == nil || len(res.Stack) != 1 {
		return failed
	}

	entry := res.Stack[0]
	if entry.Type != chain.TypeArray {
		return InvocationResult{Success: true, Result: &entry}
	}

	items, err := entry.AsArray()
	if err != nil || len(items) != 2 {
		return failed
	}

	flag, err := items[0].AsInteger()
	if err != nil {
		return failed
	}
	if flag.IsInt64() && flag.Int64() == 1 {
		return InvocationResult{Success: true, Result: &items[1]}
	}

	msg, err := items[1].AsString()
	if err != nil {
		msg = string(items[1].Value)
	}
	return InvocationResult{Error: msg}
}

func (r InvocationResult) AsString() (string, error) {
	if r.Result == nil {
		return "", nil
	}
	return r.Result.AsString()
}

func (r InvocationResult) AsBool() (bool, error) {
	if r.Result == nil {
		return false, nil
	}
	return r.Result.AsBool()
}
