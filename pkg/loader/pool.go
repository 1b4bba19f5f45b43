package loader

import (
	"bufio"
	"io"
	"sync"
	"sync/atomic"
)

// readerPool holds line readers of DefaultMaxBufferSize. LoadAll opens many
// files at once, and each reader owns a 10MB buffer.
// Only readers of the default size are pooled; custom sizes are allocated.
var readerPool = sync.Pool{
	New: func() any {
		readerPoolNews.Add(1)
		return bufio.NewReaderSize(nil, DefaultMaxBufferSize)
	},
}

var readerPoolGets atomic.Uint64
var readerPoolNews atomic.Uint64

// getReader returns a reader over r with the given buffer size.
func getReader(r io.Reader, size int) *bufio.Reader {
	if size != DefaultMaxBufferSize {
		return bufio.NewReaderSize(r, size)
	}
	readerPoolGets.Add(1)
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

// putReader returns br to the pool. After this call, br must not be used.
func putReader(br *bufio.Reader) {
	if br == nil || br.Size() != DefaultMaxBufferSize {
		return
	}
	br.Reset(nil)
	readerPool.Put(br)
}

// ReaderPoolStats returns the total pool hits and misses since process start.
func ReaderPoolStats() (hits uint64, misses uint64) {
	gets := readerPoolGets.Load()
	news := readerPoolNews.Load()
	if gets >= news {
		return gets - news, news
	}
	return 0, news
}
