package models

import "github.com/google/uuid"

// Role is the coarse authorization role carried by an authenticated actor
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated principal behind a request, as supplied by
// the authentication middleware.
type Actor struct {
	Role Role
	ID   uuid.UUID
}

// CanRead reports whether the actor may read the given transaction:
// the buyer, the listing's seller, or an administrator.
func (a Actor) CanRead(txn *Transaction) bool {
	return a.Role == RoleAdmin || a.ID == txn.BuyerID || a.ID == txn.SellerID
}
