// ABOUTME: Tests for permission evaluation and the role defaults table
// ABOUTME: Owner wildcard, bare-member emptiness and grant immutability

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/petertonysmith94/bako-safe-api/internal/store"
)

func testWorkspace() *store.Workspace {
	return &store.Workspace{
		ID:      "ws-1",
		Name:    "shared",
		OwnerID: "owner-1",
		Members: []string{"owner-1", "member-1", "member-2"},
		Permissions: map[string]store.PermissionSet{
			"member-1": {Role: store.RoleManager, Capabilities: []string{CapVaultCreate}},
		},
	}
}

func TestPolicy_DefaultCapabilities(t *testing.T) {
	policy := NewPolicy()

	tests := []struct {
		role         store.Role
		wantWildcard bool
	}{
		{store.RoleOwner, true},
		{store.RoleAdmin, true},
		{store.RoleManager, false},
		{store.RoleViewer, false},
	}

	for _, tt := range tests {
		caps := policy.DefaultCapabilities(tt.role)
		if got := contains(caps, Wildcard); got != tt.wantWildcard {
			t.Errorf("DefaultCapabilities(%s) wildcard = %v, want %v", tt.role, got, tt.wantWildcard)
		}
		if len(caps) == 0 {
			t.Errorf("DefaultCapabilities(%s) is empty", tt.role)
		}
	}
}

func TestPolicy_DefaultCapabilities_ReturnsCopy(t *testing.T) {
	policy := NewPolicy()

	caps := policy.DefaultCapabilities(store.RoleViewer)
	caps[0] = "mutated"

	if contains(policy.DefaultCapabilities(store.RoleViewer), "mutated") {
		t.Error("mutating the returned slice leaked into the defaults table")
	}
}

func TestPolicy_Effective_OwnerAlwaysWildcard(t *testing.T) {
	policy := NewPolicy()
	ws := testWorkspace()

	// Even with a hostile permissions entry for the owner, ownership wins
	ws.Permissions["owner-1"] = store.PermissionSet{Role: store.RoleViewer, Capabilities: []string{}}

	effective := policy.Effective(ws, "owner-1")
	if !contains(effective.Capabilities, Wildcard) {
		t.Errorf("owner effective = %v, want wildcard", effective.Capabilities)
	}
}

func TestPolicy_Effective_MemberEntry(t *testing.T) {
	policy := NewPolicy()
	ws := testWorkspace()

	effective := policy.Effective(ws, "member-1")
	if !contains(effective.Capabilities, CapVaultCreate) {
		t.Errorf("member-1 effective = %v, want vault:create", effective.Capabilities)
	}
}

func TestPolicy_Effective_BareMemberGetsNothing(t *testing.T) {
	policy := NewPolicy()
	ws := testWorkspace()

	effective := policy.Effective(ws, "member-2")
	if len(effective.Capabilities) != 0 {
		t.Errorf("bare member effective = %v, want empty", effective.Capabilities)
	}
	if Satisfies(effective, []string{CapVaultRead}) {
		t.Error("bare member must not satisfy any capability")
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name     string
		set      store.PermissionSet
		required []string
		want     bool
	}{
		{
			name:     "wildcard admits everything",
			set:      store.PermissionSet{Capabilities: []string{Wildcard}},
			required: []string{CapVaultCreate, CapTxSign, CapMembers},
			want:     true,
		},
		{
			name:     "superset admits",
			set:      store.PermissionSet{Capabilities: []string{CapVaultCreate, CapVaultRead}},
			required: []string{CapVaultRead},
			want:     true,
		},
		{
			name:     "missing capability denies",
			set:      store.PermissionSet{Capabilities: []string{CapVaultRead}},
			required: []string{CapVaultCreate},
			want:     false,
		},
		{
			name:     "empty required only needs authentication",
			set:      store.PermissionSet{},
			required: nil,
			want:     true,
		},
		{
			name:     "empty set denies non-empty required",
			set:      store.PermissionSet{},
			required: []string{CapVaultRead},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Satisfies(tt.set, tt.required); got != tt.want {
				t.Errorf("Satisfies() = %v, want %v", got, tt.want)
			}
		})
	}
}

// grantRecorder records SetMemberPermissions calls.
type grantRecorder struct {
	store.WorkspaceStore
	calls int
}

func (g *grantRecorder) SetMemberPermissions(ctx context.Context, workspaceID, userID string, perms store.PermissionSet) error {
	g.calls++
	return nil
}

func TestPolicy_Grant_OwnerImmutable(t *testing.T) {
	policy := NewPolicy()
	ws := testWorkspace()
	rec := &grantRecorder{}

	err := policy.Grant(context.Background(), rec, ws, "owner-1",
		store.PermissionSet{Role: store.RoleViewer, Capabilities: []string{CapVaultRead}})
	if !errors.Is(err, ErrOwnerImmutable) {
		t.Errorf("Grant(owner) error = %v, want ErrOwnerImmutable", err)
	}
	if rec.calls != 0 {
		t.Error("Grant(owner) must not reach the store")
	}
}

func TestPolicy_Grant_Member(t *testing.T) {
	policy := NewPolicy()
	ws := testWorkspace()
	rec := &grantRecorder{}

	err := policy.Grant(context.Background(), rec, ws, "member-2",
		store.PermissionSet{Role: store.RoleViewer, Capabilities: []string{CapVaultRead}})
	if err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("Grant() store calls = %d, want 1", rec.calls)
	}
}

func TestNewPolicyWithDefaults(t *testing.T) {
	t.Run("override manager", func(t *testing.T) {
		policy, err := NewPolicyWithDefaults(map[store.Role][]string{
			store.RoleManager: {CapVaultRead},
		})
		if err != nil {
			t.Fatalf("NewPolicyWithDefaults() error = %v", err)
		}
		if caps := policy.DefaultCapabilities(store.RoleManager); len(caps) != 1 || caps[0] != CapVaultRead {
			t.Errorf("manager caps = %v, want [vault:read]", caps)
		}
	})

	t.Run("owner must keep wildcard", func(t *testing.T) {
		_, err := NewPolicyWithDefaults(map[store.Role][]string{
			store.RoleOwner: {CapVaultRead},
		})
		if err == nil {
			t.Error("stripping owner wildcard should fail")
		}
	})

	t.Run("viewer must not gain wildcard", func(t *testing.T) {
		_, err := NewPolicyWithDefaults(map[store.Role][]string{
			store.RoleViewer: {Wildcard},
		})
		if err == nil {
			t.Error("viewer wildcard should fail")
		}
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, err := NewPolicyWithDefaults(map[store.Role][]string{
			store.Role("superuser"): {Wildcard},
		})
		if err == nil {
			t.Error("unknown role should fail")
		}
	})
}
