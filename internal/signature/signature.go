// Package signature derives deduplication keys for outgoing HTTP requests.
//
// A signature is a structural, length-prefixed encoding of method, URL,
// headers and body. It is an equivalence key, not a digest: two requests
// produce the same signature exactly when their normalized fields match.
package signature

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultMethod is used when a request carries no method.
const DefaultMethod = http.MethodGet

// Build returns the signature for the given request fields.
//
// Header keys are canonicalized and sorted; values keep their order. A nil
// body and an empty body are equivalent.
func Build(method, url string, header http.Header, body []byte) string {
	if method == "" {
		method = DefaultMethod
	}

	var b strings.Builder
	b.Grow(len(method) + len(url) + len(body) + 64)

	writeField(&b, method)
	writeField(&b, url)
	writeHeader(&b, header)
	writeField(&b, string(body))

	return b.String()
}

// Hash64 returns a 64-bit hash of a signature. It is used for shard
// selection only and must never replace the signature as a key.
func Hash64(sig string) uint64 {
	return xxhash.Sum64String(sig)
}

func writeHeader(b *strings.Builder, header http.Header) {
	raw := make([]string, 0, len(header))
	for k := range header {
		raw = append(raw, k)
	}
	// Raw keys are sorted first so that "accept" and "Accept" merge in a
	// stable order.
	sort.Strings(raw)

	normalized := make(map[string][]string, len(header))
	for _, k := range raw {
		ck := http.CanonicalHeaderKey(k)
		normalized[ck] = append(normalized[ck], header[k]...)
	}

	keys := make([]string, 0, len(normalized))
	for k := range normalized {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString(strconv.Itoa(len(keys)))
	b.WriteByte('{')
	for _, k := range keys {
		vs := normalized[k]
		writeField(b, k)
		b.WriteString(strconv.Itoa(len(vs)))
		b.WriteByte('[')
		for _, v := range vs {
			writeField(b, v)
		}
		b.WriteByte(']')
	}
	b.WriteByte('}')
}

// writeField appends "<len>:<value>" so adjacent fields cannot collide.
func writeField(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
