package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/store"
)

// accountModel stores timestamps as Unix nanoseconds.
type accountModel struct {
	grove.BaseModel `grove:"table:custody_accounts"`

	Address   string `grove:"address,pk"`
	Data      []byte `grove:"data"`
	Balance   int64  `grove:"balance"`
	CreatedAt int64  `grove:"created_at"`
	UpdatedAt int64  `grove:"updated_at"`
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
	acct.CreatedAt = time.Unix(0, m.CreatedAt).UTC()
	acct.UpdatedAt = time.Unix(0, m.UpdatedAt).UTC()
	return acct, nil
}
