// Package http provides the HTTP client used to fetch page images.
//
// This package handles:
//   - Connection reuse against a single source host
//   - A Referer header, which many image hosts require
//   - A hard per-request timeout
//   - A cap on response size
//   - Mapping of status codes to sentinel errors
//
// It deliberately performs no retries.
//
// # Usage
//
//	client := http.NewClient(http.Options{
//	    Timeout:     10 * time.Second,
//	    MaxBodySize: 64 << 20,
//	})
//
//	data, err := client.Fetch(ctx, imageURL, sourceURL)
//	if errors.Is(err, http.ErrTimeout) { ... }
package http
