package ingest

import (
	"context"
	"fmt"

	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
)

// nftPricesTransformer records NFT marketplace sales. A sale carrying
// multiple NFTs produces one row per NFT.
type nftPricesTransformer struct{}

func (nftPricesTransformer) Category() domain.EventCategory {
	return domain.CategoryNFTPrices
}

func (nftPricesTransformer) Transform(ctx context.Context, conn destdb.Conn, targetTable string, txs []helius.Transaction) (int, error) {
	if err := validateIdentifier(targetTable); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(nft_address, price_sol, buyer, seller, transaction_signature, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`, targetTable)

	inserted := 0
	for _, tx := range txs {
		if tx.Type != helius.TxTypeNFTSale {
			continue
		}
		// Entries without NFT details are skipped, not failed
		for _, nft := range tx.NFTs {
			if nft.Mint == "" {
				continue
			}
			err := conn.Exec(ctx, query,
				nft.Mint,
				domain.LamportsToSOL(tx.Amount),
				tx.Buyer,
				tx.Seller,
				tx.Signature,
				blockTime(tx.Timestamp),
			)
			if err != nil {
				return inserted, fmt.Errorf("failed to insert NFT price row: %w", err)
			}
			inserted++
		}
	}

	return inserted, nil
}

// nftBidsTransformer records NFT marketplace bids.
type nftBidsTransformer struct{}

func (nftBidsTransformer) Category() domain.EventCategory {
	return domain.CategoryNFTBids
}

func (nftBidsTransformer) Transform(ctx context.Context, conn destdb.Conn, targetTable string, txs []helius.Transaction) (int, error) {
	if err := validateIdentifier(targetTable); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(nft_address, bid_amount_sol, bidder, transaction_signature, marketplace, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`, targetTable)

	inserted := 0
	for _, tx := range txs {
		if tx.Type != helius.TxTypeNFTBid {
			continue
		}
		if tx.NFT == nil || tx.NFT.Mint == "" {
			continue
		}

		marketplace := tx.Marketplace
		if marketplace == "" {
			marketplace = "unknown"
		}

		err := conn.Exec(ctx, query,
			tx.NFT.Mint,
			domain.LamportsToSOL(tx.Amount),
			tx.Bidder,
			tx.Signature,
			marketplace,
			blockTime(tx.Timestamp),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert NFT bid row: %w", err)
		}
		inserted++
	}

	return inserted, nil
}
