package dto

type AuthResponse struct {
	Token    string `json:"token"`
	HolderID string `json:"holder_id"`
	Role     string `json:"role"`
	DID      string `json:"did,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type TxResponse struct {
	TxHash string `json:"tx_hash,omitempty"`
	DryRun bool   `json:"dry_run"`
}

type DIDResponse struct {
	DID string `json:"did"`
}

type TrustResponse struct {
	IssuerDID string `json:"issuer_did"`
	Schema    string `json:"schema"`
	Trusted   bool   `json:"trusted"`
}

type OfflineVerifyResponse struct {
	Valid bool   `json:"valid"`
	Hash  string `json:"hash"`
}
