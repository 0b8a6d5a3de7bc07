package flags

import (
	"errors"
	"time"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
)

var ErrNotFound = errors.New("flag not found")

// Flag is a boolean switch persisted in Redis.
type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteSwitches lists the flags that gate public routes, keyed by flag and
// mapped to the route name used in the 503 message.
var RouteSwitches = map[string]string{
	constants.FlagQuotesEnabled:   "quotes",
	constants.FlagBalancesEnabled: "balances",
	constants.FlagSolanaEnabled:   "solana",
}
