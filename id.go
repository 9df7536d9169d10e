package passage

import "github.com/xraph/passage/id"

// ID is the primary identifier type for Passage events and receipts.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
