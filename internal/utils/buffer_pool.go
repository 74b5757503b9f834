package utils

import (
	"bytes"
	"strings"
	"sync"
)

// maxPooledBufferSize caps what goes back into the pools. Anything larger is
// dropped so a single huge stream cannot pin memory for the process lifetime.
const maxPooledBufferSize = 64 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a buffer from the pool.
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer resets the buffer and returns it to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

var stringBuilderPool = sync.Pool{
	New: func() interface{} {
		return new(strings.Builder)
	},
}

// GetStringBuilder retrieves a string builder from the pool.
func GetStringBuilder() *strings.Builder {
	sb := stringBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// PutStringBuilder returns a string builder to the pool.
func PutStringBuilder(sb *strings.Builder) {
	if sb == nil {
		return
	}
	if sb.Cap() > maxPooledBufferSize {
		return
	}
	stringBuilderPool.Put(sb)
}
