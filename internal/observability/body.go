package observability

import (
	"bytes"
	"io"
	"sync"
)

// DefaultBodyLimit is the number of body bytes kept for the error record,
// fiber's default request body limit.
const DefaultBodyLimit = 4 * 1024 * 1024

// BodyRecorder wraps a request body and keeps a copy of the first limit
// bytes read through it, so the error record can show the body the handler
// consumed.
type BodyRecorder struct {
	mu    sync.Mutex
	rc    io.ReadCloser
	buf   bytes.Buffer
	limit int64
}

// NewBodyRecorder wraps rc, keeping at most limit bytes. A limit of zero or
// less keeps nothing.
func NewBodyRecorder(rc io.ReadCloser, limit int64) *BodyRecorder {
	if rc == nil {
		rc = io.NopCloser(bytes.NewReader(nil))
	}
	if limit < 0 {
		limit = 0
	}
	return &BodyRecorder{rc: rc, limit: limit}
}

func (b *BodyRecorder) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	if n > 0 {
		b.mu.Lock()
		if room := b.limit - int64(b.buf.Len()); room > 0 {
			if int64(n) < room {
				room = int64(n)
			}
			b.buf.Write(p[:room])
		}
		b.mu.Unlock()
	}
	return n, err
}

func (b *BodyRecorder) Close() error {
	return b.rc.Close()
}

// Bytes reads what the handler left unread, up to the limit, and returns the
// body seen so far. Read errors are ignored.
func (b *BodyRecorder) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - int64(b.buf.Len()); room > 0 {
		_, _ = io.Copy(&b.buf, io.LimitReader(b.rc, room))
	}
	return append([]byte(nil), b.buf.Bytes()...)
}
