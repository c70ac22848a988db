package byteutil

import (
	"bytes"
	"sync"
)

// Buffers that grew past maxPooled are left to the garbage collector so a
// single large snapshot does not pin its memory in the pool.
const maxPooled = 64 << 20

var bytesBuffer = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

func GetBytesBuf() *bytes.Buffer {
	return bytesBuffer.Get().(*bytes.Buffer)
}

func PutBytesBuf(p *bytes.Buffer) {
	if p.Cap() > maxPooled {
		return
	}
	p.Reset()
	bytesBuffer.Put(p)
}
