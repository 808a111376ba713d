package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeResultID computes a deterministic result_id using SHA256.
// Formula: SHA256(stock_code|expiry_date|update_time)
// Returns hex-encoded hash (64 characters).
//
// Rerunning the pipeline over the same snapshot produces the same ID, so the
// append-only result store rejects the duplicate instead of double-counting.
func ComputeResultID(stockCode, expiry, updateTime string) string {
	data := fmt.Sprintf("%s|%s|%s", stockCode, expiry, updateTime)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
