package models

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// HashID derives a stable synthetic id from a seed string using FNV-1a.
// Identical seeds always produce identical ids, which keeps content-derived
// ids (comments, mined events) idempotent across replays.
func HashID(prefix, seed string) string {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return fmt.Sprintf("%s_%x", prefix, h.Sum64())
}

// NewID generates a fresh id for entities created by the API itself.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%d%04d", prefix, time.Now().UnixMilli(), rand.Intn(10000))
}
