package chain

import "encoding/hex"

// ContractParam is a typed argument of a contract invocation. It marshals to
// the {"type","value"} shape expected by invokefunction.
type ContractParam struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func StringParam(v string) ContractParam {
	return ContractParam{Type: TypeString, Value: v}
}

func BooleanParam(v bool) ContractParam {
	return ContractParam{Type: TypeBoolean, Value: v}
}

func IntegerParam(v int64) ContractParam {
	return ContractParam{Type: TypeInteger, Value: v}
}

func ByteArrayParam(v []byte) ContractParam {
	return ContractParam{Type: TypeByteArray, Value: hex.EncodeToString(v)}
}
