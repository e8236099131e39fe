package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActorCanRead(t *testing.T) {
	buyerID := uuid.New()
	sellerID := uuid.New()
	txn := &Transaction{BuyerID: buyerID, SellerID: sellerID}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{name: "buyer reads own transaction", actor: Actor{ID: buyerID, Role: RoleBuyer}, want: true},
		{name: "seller reads own sale", actor: Actor{ID: sellerID, Role: RoleSeller}, want: true},
		{name: "admin reads anything", actor: Actor{ID: uuid.New(), Role: RoleAdmin}, want: true},
		{name: "unrelated buyer is denied", actor: Actor{ID: uuid.New(), Role: RoleBuyer}, want: false},
		{name: "unrelated seller is denied", actor: Actor{ID: uuid.New(), Role: RoleSeller}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.CanRead(txn))
		})
	}
}
