package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
)

// accountModel is the document stored per address. Data is absent for
// balance-only accounts.
type accountModel struct {
	grove.BaseModel `grove:"table:custody_accounts"`

	ID        string    `grove:"id,pk"      bson:"_id"`
	Data      []byte    `grove:"data"       bson:"data,omitempty"`
	Balance   int64     `grove:"balance"    bson:"balance"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func fromAccountModel(m *accountModel) (*store.Account, error) {
	addr, err := address.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	acct := &store.Account{
		Address: addr,
		Data:    m.Data,
		Balance: uint64(m.Balance),
	}
	acct.CreatedAt = m.CreatedAt.UTC()
	acct.UpdatedAt = m.UpdatedAt.UTC()
	return acct, nil
}
