package rbac

// Role constants
const (
	RoleHolder   = "holder"
	RoleOperator = "operator"
)

// Permission constants
const (
	PermManageWallet   = "manage_wallet"
	PermRegisterSchema = "register_schema"
	PermIssueClaim     = "issue_claim"
	PermRevokeClaim    = "revoke_claim"
	PermManageTrust    = "manage_trust"
	PermVerify         = "verify"
	PermViewAudit      = "view_audit"
)

// RolePermissions defines what each role can do.
var RolePermissions = map[string][]string{
	RoleHolder: {
		PermManageWallet, PermVerify,
		// holders never sign with the issuer or root-of-trust keys
	},
	RoleOperator: {
		PermRegisterSchema, PermIssueClaim, PermRevokeClaim, PermManageTrust, PermVerify, PermViewAudit,
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role, permission string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}
