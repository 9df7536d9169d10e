package passage

import "github.com/xraph/passage/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Identity is re-exported from types package.
type Identity = types.Identity

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	JPY  = types.JPY
	Zero = types.Zero
)
