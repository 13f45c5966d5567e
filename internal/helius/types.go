package helius

// Transaction type discriminators as delivered in enhanced webhook payloads.
const (
	// TxTypeNFTSale is an NFT marketplace sale
	TxTypeNFTSale = "NFT_SALE"
	// TxTypeNFTBid is an NFT marketplace bid
	TxTypeNFTBid = "NFT_BID"
	// TxTypeTokenTransfer is an SPL token transfer
	TxTypeTokenTransfer = "TOKEN_TRANSFER"
	// TxTypeTokenMint is an SPL token mint
	TxTypeTokenMint = "TOKEN_MINT"
	// TxTypeTokenBurn is an SPL token burn
	TxTypeTokenBurn = "TOKEN_BURN"
	// TxTypeSwap is a DEX swap
	TxTypeSwap = "SWAP"
)

// SignatureHeader is the HTTP header carrying the HMAC signature of the raw
// inbound payload.
const SignatureHeader = "Helius-Signature"

// DefaultTransactionTypes returns the transaction types subscribed when a
// webhook registration does not name its own.
func DefaultTransactionTypes() []string {
	return []string{
		TxTypeNFTSale,
		TxTypeNFTBid,
		TxTypeTokenTransfer,
		TxTypeTokenMint,
		TxTypeTokenBurn,
		TxTypeSwap,
	}
}

// EventBatch is the body of an inbound webhook delivery.
type EventBatch struct {
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one transaction-like entry in an inbound batch. The payload
// is heterogeneous: which fields are populated depends on Type, and consumers
// must treat missing sub-structures as a skip, not an error.
type Transaction struct {
	// Type discriminates the event shape (NFT_SALE, SWAP, ...)
	Type string `json:"type"`
	// Signature is the on-chain transaction signature
	Signature string `json:"signature"`
	// Timestamp is the block time in Unix seconds
	Timestamp int64 `json:"timestamp"`

	// NFT sale fields
	NFTs   []NFT  `json:"nfts,omitempty"`
	Amount int64  `json:"amount,omitempty"` // lamports
	Buyer  string `json:"buyer,omitempty"`
	Seller string `json:"seller,omitempty"`

	// NFT bid fields
	NFT         *NFT   `json:"nft,omitempty"`
	Bidder      string `json:"bidder,omitempty"`
	Marketplace string `json:"marketplace,omitempty"`

	// Token transfer/mint/burn fields
	TokenTransfers []TokenTransfer `json:"tokenTransfers,omitempty"`

	// Swap fields
	TokenSwaps []TokenSwap `json:"tokenSwaps,omitempty"`
	Dex        string      `json:"dex,omitempty"`
}

// NFT identifies an NFT by mint address.
type NFT struct {
	Mint string `json:"mint"`
}

// TokenTransfer is one token movement within a transaction.
type TokenTransfer struct {
	FromUserAccount string      `json:"fromUserAccount,omitempty"`
	ToUserAccount   string      `json:"toUserAccount,omitempty"`
	Mint            string      `json:"mint"`
	TokenAmount     TokenAmount `json:"tokenAmount"`
}

// TokenAmount carries a token quantity in UI units.
type TokenAmount struct {
	UIAmount float64 `json:"uiAmount"`
}

// TokenSwap is one swap leg within a SWAP transaction.
type TokenSwap struct {
	TokenIn   *SwapToken  `json:"tokenIn,omitempty"`
	TokenOut  *SwapToken  `json:"tokenOut,omitempty"`
	AmountIn  *SwapAmount `json:"amountIn,omitempty"`
	AmountOut *SwapAmount `json:"amountOut,omitempty"`
}

// SwapToken identifies one side of a swap by mint address.
type SwapToken struct {
	Mint string `json:"mint"`
}

// SwapAmount carries a swap quantity in UI units.
type SwapAmount struct {
	UIAmount float64 `json:"uiAmount"`
}

// Webhook is a provider-side webhook registration.
type Webhook struct {
	WebhookID        string   `json:"webhookID"`
	WebhookURL       string   `json:"webhook"`
	AccountAddresses []string `json:"accountAddresses"`
	TransactionTypes []string `json:"transactionTypes"`
	WebhookType      string   `json:"webhookType"`
}

// TokenMetadata is the provider's token metadata record.
type TokenMetadata struct {
	Mint     string `json:"mint"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}
