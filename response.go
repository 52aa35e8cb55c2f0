package fastfetch

import (
	"bytes"
	"io"
	"net/http"
)

// bufferedBody is a response body held in memory so that every caller
// attached to a shared call can read its own copy.
type bufferedBody struct {
	*bytes.Reader
	data []byte
}

func newBufferedBody(data []byte) *bufferedBody {
	return &bufferedBody{Reader: bytes.NewReader(data), data: data}
}

func (*bufferedBody) Close() error { return nil }

// bufferResponse replaces resp.Body with an in-memory copy. The original
// body is closed.
func bufferResponse(resp *http.Response) error {
	if resp.Body == nil || resp.Body == http.NoBody {
		resp.Body = newBufferedBody(nil)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}
	resp.Body = newBufferedBody(data)
	return nil
}

// cloneResponse returns a copy of a shared response with independent
// headers and body.
func cloneResponse(resp *http.Response) *http.Response {
	if resp == nil {
		return nil
	}

	clone := *resp
	clone.Header = resp.Header.Clone()
	clone.Trailer = resp.Trailer.Clone()
	if b, ok := resp.Body.(*bufferedBody); ok {
		clone.Body = newBufferedBody(b.data)
	}
	return &clone
}
