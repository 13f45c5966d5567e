package domain

// EventCategory identifies one of the supported kinds of Solana events a
// configuration can capture. The category fixes both the transformer used
// for inbound payloads and the destination table shape.
type EventCategory string

const (
	// CategoryNFTPrices captures NFT marketplace sales
	CategoryNFTPrices EventCategory = "NFT_PRICES"
	// CategoryNFTBids captures NFT marketplace bids
	CategoryNFTBids EventCategory = "NFT_BIDS"
	// CategoryTokenAvailability captures token transfers, mints and burns
	CategoryTokenAvailability EventCategory = "TOKEN_AVAILABILITY"
	// CategoryTokenPrices captures DEX swaps for price discovery
	CategoryTokenPrices EventCategory = "TOKEN_PRICES"
)

// Categories lists every supported event category.
func Categories() []EventCategory {
	return []EventCategory{
		CategoryNFTPrices,
		CategoryNFTBids,
		CategoryTokenAvailability,
		CategoryTokenPrices,
	}
}

// Valid reports whether c is one of the supported categories.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryNFTPrices, CategoryNFTBids, CategoryTokenAvailability, CategoryTokenPrices:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (c EventCategory) String() string {
	return string(c)
}
