package custody

import "github.com/xraph/custody/id"

// ID identifies an emitted event.
type ID = id.ID

// Prefix identifies the event kind encoded in a TypeID.
type Prefix = id.Prefix
