// webhooksim sends synthetic signed event batches to a running ingest
// endpoint. Useful for exercising a deployment end to end without waiting
// for real on-chain activity.
//
// Usage:
//
//	go run ./tools/webhooksim -url http://localhost:8080/webhooks/<id> \
//	    -secret <shared-secret> -count 10 -category NFT_PRICES
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/blockpipe/solindexer/internal/domain"
	"github.com/blockpipe/solindexer/internal/helius"
)

var (
	targetURL = flag.String("url", "", "Full ingest URL including the webhook ID")
	secret    = flag.String("secret", "", "Shared webhook secret for signing")
	count     = flag.Int("count", 1, "Number of deliveries to send")
	batchSize = flag.Int("batch-size", 5, "Transactions per delivery")
	category  = flag.String("category", string(domain.CategoryNFTPrices), "Event category to synthesize")
	interval  = flag.Duration("interval", 500*time.Millisecond, "Delay between deliveries")
)

func main() {
	flag.Parse()

	if *targetURL == "" || *secret == "" {
		fmt.Println("Error: -url and -secret are required")
		flag.Usage()
		os.Exit(1)
	}

	cat := domain.EventCategory(*category)
	if !cat.Valid() {
		fmt.Printf("Error: unknown category %q (valid: %v)\n", *category, domain.Categories())
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	var failures int
	for i := 0; i < *count; i++ {
		body, err := json.Marshal(helius.EventBatch{Transactions: makeBatch(cat, *batchSize)})
		if err != nil {
			fmt.Printf("Failed to marshal batch: %v\n", err)
			os.Exit(1)
		}

		status, elapsed, err := deliver(client, *targetURL, *secret, body)
		if err != nil {
			failures++
			fmt.Printf("[%d/%d] delivery failed: %v\n", i+1, *count, err)
		} else {
			fmt.Printf("[%d/%d] %d in %s (%d transactions)\n", i+1, *count, status, elapsed, *batchSize)
			if status != http.StatusOK {
				failures++
			}
		}

		if i < *count-1 {
			time.Sleep(*interval)
		}
	}

	if failures > 0 {
		fmt.Printf("%d of %d deliveries failed\n", failures, *count)
		os.Exit(1)
	}
}

// deliver signs and posts one batch, returning the status and latency.
func deliver(client *http.Client, url, secret string, body []byte) (int, time.Duration, error) {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(helius.SignatureHeader, signature)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, time.Since(start).Round(time.Millisecond), nil
}

// makeBatch synthesizes plausible transactions for a category.
func makeBatch(category domain.EventCategory, size int) []helius.Transaction {
	txs := make([]helius.Transaction, 0, size)
	now := time.Now().Unix()

	for i := 0; i < size; i++ {
		switch category {
		case domain.CategoryNFTPrices:
			txs = append(txs, helius.Transaction{
				Type:      helius.TxTypeNFTSale,
				Signature: randomSignature(),
				Timestamp: now,
				Amount:    int64(rand.Intn(100)+1) * domain.LamportsPerSOL / 10,
				Buyer:     randomAddress(),
				Seller:    randomAddress(),
				NFTs:      []helius.NFT{{Mint: randomAddress()}},
			})
		case domain.CategoryNFTBids:
			txs = append(txs, helius.Transaction{
				Type:        helius.TxTypeNFTBid,
				Signature:   randomSignature(),
				Timestamp:   now,
				Amount:      int64(rand.Intn(50)+1) * domain.LamportsPerSOL / 10,
				Bidder:      randomAddress(),
				Marketplace: "magiceden",
				NFT:         &helius.NFT{Mint: randomAddress()},
			})
		case domain.CategoryTokenAvailability:
			txs = append(txs, helius.Transaction{
				Type:      helius.TxTypeTokenTransfer,
				Signature: randomSignature(),
				Timestamp: now,
				TokenTransfers: []helius.TokenTransfer{{
					FromUserAccount: randomAddress(),
					ToUserAccount:   randomAddress(),
					Mint:            randomAddress(),
					TokenAmount:     helius.TokenAmount{UIAmount: rand.Float64() * 1000},
				}},
			})
		case domain.CategoryTokenPrices:
			txs = append(txs, helius.Transaction{
				Type:      helius.TxTypeSwap,
				Signature: randomSignature(),
				Timestamp: now,
				Dex:       "raydium",
				TokenSwaps: []helius.TokenSwap{{
					TokenIn:   &helius.SwapToken{Mint: domain.WrappedSOLMint},
					TokenOut:  &helius.SwapToken{Mint: randomAddress()},
					AmountIn:  &helius.SwapAmount{UIAmount: rand.Float64() * 10},
					AmountOut: &helius.SwapAmount{UIAmount: rand.Float64() * 10000},
				}},
			})
		}
	}
	return txs
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func randomBase58(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base58Alphabet[rand.Intn(len(base58Alphabet))]
	}
	return string(b)
}

func randomAddress() string   { return randomBase58(44) }
func randomSignature() string { return randomBase58(88) }
