package collateral

import "strings"

type Tier string

const (
	TierStablecoin Tier = "stablecoin"
	TierNative     Tier = "native"
	TierOther      Tier = "other"
)

// Minimum collateralization at origination, in basis points.
const (
	StablecoinRatioBps uint64 = 11_000
	NativeRatioBps     uint64 = 12_500
	OtherRatioBps      uint64 = 15_000
)

// Health bands for active loans, in basis points.
const (
	WarningThresholdBps     uint64 = 11_000
	LiquidationThresholdBps uint64 = 10_500
)

var (
	DefaultStablecoins = []string{"USDC", "USDT", "DAI", "EURC", "PYUSD"}
	DefaultNativeAsset = "XLM"
)

// Classifier maps an asset identifier to its collateral risk tier.
// Matching is case-insensitive on trimmed identifiers.
type Classifier struct {
	stablecoins map[string]struct{}
	native      string
}

func NewClassifier(stablecoins []string, native string) Classifier {
	set := make(map[string]struct{}, len(stablecoins))
	for _, s := range stablecoins {
		if k := normalize(s); k != "" {
			set[k] = struct{}{}
		}
	}
	return Classifier{stablecoins: set, native: normalize(native)}
}

func DefaultClassifier() Classifier {
	return NewClassifier(DefaultStablecoins, DefaultNativeAsset)
}

func (c Classifier) Classify(asset string) Tier {
	k := normalize(asset)
	if k == "" {
		return TierOther
	}
	if _, ok := c.stablecoins[k]; ok {
		return TierStablecoin
	}
	if c.native != "" && k == c.native {
		return TierNative
	}
	return TierOther
}

// RequiredRatioBps is the minimum collateral/principal ratio accepted at origination.
func (c Classifier) RequiredRatioBps(asset string) uint64 {
	return RequiredRatio(c.Classify(asset))
}

func RequiredRatio(t Tier) uint64 {
	switch t {
	case TierStablecoin:
		return StablecoinRatioBps
	case TierNative:
		return NativeRatioBps
	case TierOther:
		return OtherRatioBps
	}
	return OtherRatioBps
}

func normalize(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
