package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/blockpipe/solindexer/internal/destdb"
	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
)

// Transformer maps a raw event batch into typed row insertions for a
// reconciled destination table.
//
// Common policy for all categories: iterate the batch, select entries by the
// category's type discriminator, skip entries missing required
// sub-structures rather than failing the whole batch, insert one row per
// extracted sub-record with a parameterized statement, and return the count
// of rows actually inserted.
type Transformer interface {
	// Category returns the event category this transformer handles
	Category() domain.EventCategory
	// Transform writes rows for matching entries and returns how many were
	// inserted
	Transform(ctx context.Context, conn destdb.Conn, targetTable string, txs []helius.Transaction) (int, error)
}

// TransformerFor returns the transformer for a category.
func TransformerFor(category domain.EventCategory) (Transformer, error) {
	switch category {
	case domain.CategoryNFTPrices:
		return nftPricesTransformer{}, nil
	case domain.CategoryNFTBids:
		return nftBidsTransformer{}, nil
	case domain.CategoryTokenAvailability:
		return tokenAvailabilityTransformer{}, nil
	case domain.CategoryTokenPrices:
		return tokenPricesTransformer{}, nil
	default:
		return nil, fmt.Errorf("no transformer for category %q", category)
	}
}

// blockTime converts a payload's Unix-second timestamp to UTC.
func blockTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}
