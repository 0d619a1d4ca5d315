package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

var (
	sellerID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	otherID  = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	quoteID  = uuid.MustParse("33333333-3333-4333-8333-333333333333")
)

func TestPrincipal_CanCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Principal
		want bool
	}{
		{"seller", Principal{ID: uuid.New(), Role: RoleSeller}, true},
		{"admin", Principal{ID: uuid.New(), Role: RoleAdmin}, true},
		{"viewer", Principal{ID: uuid.New(), Role: RoleViewer}, false},
		{"missing id", Principal{Role: RoleSeller}, false},
		{"unknown role", Principal{ID: uuid.New(), Role: Role("root")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.p.CanCreate(); got != tt.want {
				t.Errorf("CanCreate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrincipal_Owns(t *testing.T) {
	t.Parallel()

	p := Principal{ID: sellerID, Role: RoleSeller}
	if !p.Owns(sellerID) {
		t.Error("expected principal to own its own record")
	}
	if p.Owns(otherID) {
		t.Error("expected principal not to own another seller's record")
	}
	if (Principal{}).Owns(uuid.Nil) {
		t.Error("empty principal must not own records with nil owner")
	}
}

func TestAuthorizeHelpers(t *testing.T) {
	t.Parallel()

	seller := Principal{ID: sellerID, Role: RoleSeller}
	viewer := Principal{ID: uuid.New(), Role: RoleViewer}
	admin := Principal{ID: uuid.New(), Role: RoleAdmin}

	if err := AuthorizeCreate("create quote", seller); err != nil {
		t.Errorf("seller create: %v", err)
	}
	if err := AuthorizeCreate("create quote", viewer); !errors.Is(err, ErrForbidden) {
		t.Errorf("viewer create: got %v, want ErrForbidden", err)
	}

	if err := AuthorizeOwner("update quote", quoteID, seller, sellerID); err != nil {
		t.Errorf("owner update: %v", err)
	}
	err := AuthorizeOwner("update quote", quoteID, seller, otherID)
	var ae *AuthorizationError
	if !errors.As(err, &ae) || ae.ID != quoteID.String() || ae.PrincipalID != sellerID {
		t.Errorf("non-owner update: got %v", err)
	}

	if err := AuthorizeAdmin("update settings", admin); err != nil {
		t.Errorf("admin: %v", err)
	}
	if err := AuthorizeAdmin("update settings", seller); !errors.Is(err, ErrForbidden) {
		t.Errorf("seller admin op: got %v, want ErrForbidden", err)
	}
}
