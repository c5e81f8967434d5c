package contracts

// Operation names exported by the issuer contract.
const (
	IssuerName             = "Name"
	IssuerPublicKey        = "PublicKey"
	IssuerGetSchemaDetails = "GetSchemaDetails"
	IssuerRegisterSchema   = "RegisterSchema"
	IssuerInjectClaim      = "InjectClaim"
	IssuerRevokeClaim      = "RevokeClaim"
	IssuerIsValidClaim     = "IsValidClaim"
)

// Operation names exported by the root-of-trust contract.
const (
	RootOfTrustName             = "Name"
	RootOfTrustIsTrusted        = "IsTrusted"
	RootOfTrustRegisterIssuer   = "RegisterIssuer"
	RootOfTrustDeactivateIssuer = "DeactivateIssuer"
)
