package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
)

type accountModel struct {
	grove.BaseModel `grove:"table:custody_accounts"`

	Address   string    `grove:"address,pk"`
	Data      []byte    `grove:"data,type:bytea"`
	Balance   int64     `grove:"balance"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func fromAccountModel(m *accountModel) (*store.Account, error) {
	addr, err := address.Parse(m.Address)
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
