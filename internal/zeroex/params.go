package zeroex

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/token-sweeper/internal/config"
	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
)

// Query parameter names understood by the 0x swap API.
const (
	ParamBuyToken         = "buyToken"
	ParamSlippageBps      = "slippageBps"
	ParamPriceImpact      = "priceImpactProtectionPercentage"
	ParamSwapFeeRecipient = "swapFeeRecipient"
	ParamSwapFeeBps       = "swapFeeBps"
	ParamSwapFeeToken     = "swapFeeToken"
)

// BuildQuoteParams returns the parameter set sent upstream for a caller's
// quote request. The caller's values are copied, never modified.
//
// Overrides, in no particular order:
//   - priceImpactProtectionPercentage is always forced to the high threshold
//   - slippageBps gets the policy default only when the caller left it out
//   - swapFeeRecipient, swapFeeBps and swapFeeToken are set together when the
//     policy is active and the caller named a buyToken, and stripped otherwise
func BuildQuoteParams(caller url.Values, policy config.FeePolicy) url.Values {
	out := make(url.Values, len(caller)+5)
	for k, vs := range caller {
		if len(vs) == 0 {
			continue
		}
		// last write wins for duplicated keys
		out.Set(k, vs[len(vs)-1])
	}

	out.Set(ParamPriceImpact, constants.PriceImpactThreshold)

	// an empty slippageBps counts as not supplied
	if strings.TrimSpace(out.Get(ParamSlippageBps)) == "" {
		out.Set(ParamSlippageBps, strconv.Itoa(policy.DefaultSlippageBps))
	}

	buyToken := strings.TrimSpace(out.Get(ParamBuyToken))
	if policy.FeeActive() && buyToken != "" {
		out.Set(ParamSwapFeeRecipient, policy.FeeRecipient)
		out.Set(ParamSwapFeeBps, strconv.Itoa(policy.FeeBps))
		out.Set(ParamSwapFeeToken, out.Get(ParamBuyToken))
	} else {
		// fee params only ever come from the policy
		out.Del(ParamSwapFeeRecipient)
		out.Del(ParamSwapFeeBps)
		out.Del(ParamSwapFeeToken)
	}

	return out
}
