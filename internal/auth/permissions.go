// ABOUTME: Role-to-capability mapping and per-member permission evaluation
// ABOUTME: Owner always holds the wildcard; bare membership grants nothing

package auth

import (
	"context"
	"fmt"

	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

// Wildcard grants every capability.
const Wildcard = "*"

// Capability strings gating workspace resources. The concrete set is
// deployment-defined; these are the compiled-in defaults.
const (
	CapVaultCreate = "vault:create"
	CapVaultRead   = "vault:read"
	CapVaultUpdate = "vault:update"
	CapVaultDelete = "vault:delete"
	CapTxCreate    = "tx:create"
	CapTxSign      = "tx:sign"
	CapTxRead      = "tx:read"
	CapMembers     = "member:manage"
	CapWorkspace   = "workspace:update"
)

// builtinDefaults is the compiled-in role table. Owner and admin carry the
// wildcard; viewer is strictly read-only.
var builtinDefaults = map[store.Role][]string{
	store.RoleOwner:   {Wildcard},
	store.RoleAdmin:   {Wildcard},
	store.RoleManager: {CapVaultCreate, CapVaultRead, CapTxCreate, CapTxRead, CapMembers},
	store.RoleViewer:  {CapVaultRead, CapTxRead},
}

// Policy evaluates workspace permissions against a role table. The table can
// be overridden per deployment (see config.LoadRoleDefaults), with two fixed
// contracts: owner's set always contains the wildcard and viewer's never does.
type Policy struct {
	defaults map[store.Role][]string
}

// NewPolicy creates a policy from the compiled-in role table.
func NewPolicy() *Policy {
	return &Policy{defaults: builtinDefaults}
}

// NewPolicyWithDefaults creates a policy with per-role capability overrides.
// Roles absent from overrides keep their compiled-in sets. Overrides that
// would strip owner's wildcard or hand viewer one are rejected.
func NewPolicyWithDefaults(overrides map[store.Role][]string) (*Policy, error) {
	defaults := make(map[store.Role][]string, len(builtinDefaults))
	for role, caps := range builtinDefaults {
		defaults[role] = caps
	}
	for role, caps := range overrides {
		switch role {
		case store.RoleOwner:
			if !contains(caps, Wildcard) {
				return nil, fmt.Errorf("role %q must keep the wildcard capability", role)
			}
		case store.RoleViewer:
			if contains(caps, Wildcard) {
				return nil, fmt.Errorf("role %q must not hold the wildcard capability", role)
			}
		case store.RoleAdmin, store.RoleManager:
			// deployment's choice
		default:
			return nil, fmt.Errorf("unknown role %q", role)
		}
		defaults[role] = append([]string(nil), caps...)
	}
	return &Policy{defaults: defaults}, nil
}

// DefaultCapabilities returns the capability set a role grants by default.
// The returned slice is a copy.
func (p *Policy) DefaultCapabilities(role store.Role) []string {
	return append([]string(nil), p.defaults[role]...)
}

// DefaultPermissionSet returns the role's default capabilities as a
// PermissionSet ready for the permissions table.
func (p *Policy) DefaultPermissionSet(role store.Role) store.PermissionSet {
	return store.PermissionSet{Role: role, Capabilities: p.DefaultCapabilities(role)}
}

// Effective returns the capabilities userID holds in the workspace. The owner
// always gets the wildcard regardless of the permissions map; everyone else
// gets exactly their permissions entry. Presence in the member list alone
// grants nothing.
func (p *Policy) Effective(ws *store.Workspace, userID string) store.PermissionSet {
	if userID == ws.OwnerID {
		return store.PermissionSet{Role: store.RoleOwner, Capabilities: []string{Wildcard}}
	}
	if perms, ok := ws.Permissions[userID]; ok {
		return perms
	}
	return store.PermissionSet{}
}

// Grant sets or overwrites a member's permission entry. Granting to the
// workspace owner fails with ErrOwnerImmutable.
func (p *Policy) Grant(ctx context.Context, workspaces store.WorkspaceStore, ws *store.Workspace, userID string, perms store.PermissionSet) error {
	if userID == ws.OwnerID {
		return ErrOwnerImmutable
	}
	return workspaces.SetMemberPermissions(ctx, ws.ID, userID, perms)
}

// Satisfies reports whether the capability set admits every required
// capability, either through the wildcard or as a superset.
func Satisfies(set store.PermissionSet, required []string) bool {
	if contains(set.Capabilities, Wildcard) {
		return true
	}
	for _, req := range required {
		if !contains(set.Capabilities, req) {
			return false
		}
	}
	return true
}

func contains(caps []string, want string) bool {
	for _, c := range caps {
		if c == want {
			return true
		}
	}
	return false
}
