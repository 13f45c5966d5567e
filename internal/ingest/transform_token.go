package ingest

import (
	"context"
	"fmt"

	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
)

// tokenAvailabilityTransformer records token transfers, mints and burns.
type tokenAvailabilityTransformer struct{}

func (tokenAvailabilityTransformer) Category() domain.EventCategory {
	return domain.CategoryTokenAvailability
}

func (tokenAvailabilityTransformer) Transform(ctx context.Context, conn destdb.Conn, targetTable string, txs []helius.Transaction) (int, error) {
	if err := validateIdentifier(targetTable); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(token_mint, from_account, to_account, amount, transaction_type, transaction_signature, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, targetTable)

	inserted := 0
	for _, tx := range txs {
		if !isAvailabilityType(tx.Type) {
			continue
		}
		for _, transfer := range tx.TokenTransfers {
			if transfer.Mint == "" {
				continue
			}
			err := conn.Exec(ctx, query,
				transfer.Mint,
				nullable(transfer.FromUserAccount),
				nullable(transfer.ToUserAccount),
				transfer.TokenAmount.UIAmount,
				tx.Type,
				tx.Signature,
				blockTime(tx.Timestamp),
			)
			if err != nil {
				return inserted, fmt.Errorf("failed to insert token availability row: %w", err)
			}
			inserted++
		}
	}

	return inserted, nil
}

func isAvailabilityType(txType string) bool {
	switch txType {
	case helius.TxTypeTokenTransfer, helius.TxTypeTokenMint, helius.TxTypeTokenBurn:
		return true
	}
	return false
}

// tokenPricesTransformer records DEX swaps. A price in SOL is derived only
// when one side of the swap is the base asset (wrapped or native SOL);
// swaps between two non-base tokens are stored with a NULL price.
type tokenPricesTransformer struct{}

func (tokenPricesTransformer) Category() domain.EventCategory {
	return domain.CategoryTokenPrices
}

func (tokenPricesTransformer) Transform(ctx context.Context, conn destdb.Conn, targetTable string, txs []helius.Transaction) (int, error) {
	if err := validateIdentifier(targetTable); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(token_in_mint, token_out_mint, amount_in, amount_out, price_in_sol, dex, transaction_signature, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, targetTable)

	inserted := 0
	for _, tx := range txs {
		if tx.Type != helius.TxTypeSwap {
			continue
		}

		dex := tx.Dex
		if dex == "" {
			dex = "unknown"
		}

		for _, swap := range tx.TokenSwaps {
			if swap.TokenIn == nil || swap.TokenOut == nil || swap.AmountIn == nil || swap.AmountOut == nil {
				continue
			}

			err := conn.Exec(ctx, query,
				swap.TokenIn.Mint,
				swap.TokenOut.Mint,
				swap.AmountIn.UIAmount,
				swap.AmountOut.UIAmount,
				swapPriceInSOL(swap),
				dex,
				tx.Signature,
				blockTime(tx.Timestamp),
			)
			if err != nil {
				return inserted, fmt.Errorf("failed to insert token price row: %w", err)
			}
			inserted++
		}
	}

	return inserted, nil
}

// swapPriceInSOL derives the non-base token's price in SOL, or nil when
// neither side of the swap is the base asset or an amount is zero.
func swapPriceInSOL(swap helius.TokenSwap) *float64 {
	in := swap.AmountIn.UIAmount
	out := swap.AmountOut.UIAmount

	if domain.IsBaseAsset(swap.TokenIn.Mint) && out != 0 {
		price := in / out
		return &price
	}
	if domain.IsBaseAsset(swap.TokenOut.Mint) && in != 0 {
		price := out / in
		return &price
	}
	return nil
}

// nullable maps an empty string to a SQL NULL parameter.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
