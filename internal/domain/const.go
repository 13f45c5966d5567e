package domain

const (
	// WrappedSOLMint is the mint address of wrapped SOL (WSOL)
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	// NativeSOLMint is the pseudo-mint address Helius reports for native SOL
	NativeSOLMint = "11111111111111111111111111111111"

	// LamportsPerSOL is the number of lamports in one SOL
	LamportsPerSOL = 1_000_000_000
)

// IsBaseAsset reports whether mint is wrapped or native SOL, the
// denominator used when deriving a token's price from a swap.
func IsBaseAsset(mint string) bool {
	return mint == WrappedSOLMint || mint == NativeSOLMint
}

// LamportsToSOL converts an amount in lamports to whole SOL.
func LamportsToSOL(lamports int64) float64 {
	return float64(lamports) / LamportsPerSOL
}
