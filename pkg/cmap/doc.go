// Package cmap provides a string-keyed concurrent map split into shards.
//
// Keys are spread over shards with murmur3, and each shard has its own
// RWMutex, so unrelated keys rarely contend. The server keeps its per-key
// and per-IP rate limiters here.
//
//	m := cmap.New[*rate.Limiter]()
//	l := m.GetOrCompute(ip, func() *rate.Limiter { return rate.NewLimiter(10, 10) })
package cmap
