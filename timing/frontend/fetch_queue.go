package frontend

// FetchQueue models the occupancy of the instruction queue as a single
// byte counter. Fetch delivers one aligned block per cycle; control-flow
// redirects waste the rest of the block past the redirect point, which
// the counter charges by truncating back to a block boundary. The count
// can dip below zero transiently after a redirect while the next block is
// still in flight.
type FetchQueue struct {
	fetchSize int64
	length    int64
	newFetch  bool
}

// NewFetchQueue creates a queue fetching blocks of at least fetchSize
// bytes, rounded up to a power of two no smaller than four. The queue
// starts with one block already delivered, the state the core resets
// into.
func NewFetchQueue(fetchSize uint64) *FetchQueue {
	size := int64(4)
	for size < int64(fetchSize) {
		size <<= 1
	}
	return &FetchQueue{
		fetchSize: size,
		length:    size,
		newFetch:  true,
	}
}

// Fetch delivers one aligned block of bytes.
func (q *FetchQueue) Fetch() {
	q.length += q.fetchSize
	q.newFetch = true
}

// Flush empties the queue after a mispredict or exception.
func (q *FetchQueue) Flush() {
	q.length = 0
	q.newFetch = false
}

// Jump charges a taken redirect: the most recent block, if fresh, is
// wasted, and the queue truncates back to a block boundary.
func (q *FetchQueue) Jump() {
	if q.newFetch {
		q.length -= q.fetchSize
		q.newFetch = false
	}
	q.truncate(0)
}

// Has reports whether the queue holds the full encoding of an instruction
// of the given size at the given address. A 32-bit encoding starting on
// the last parcel of a block needs the following block as well.
func (q *FetchQueue) Has(addr, size uint64) bool {
	length := q.length
	if q.crossesBlock(addr, size) {
		length -= q.fetchSize - 2
	}
	return length >= int64(size)
}

// Remove consumes an issued instruction. isJump marks unconditional
// redirects, which waste the rest of their block like a taken branch.
func (q *FetchQueue) Remove(addr, size uint64, isJump bool) {
	q.length -= int64(size)
	q.truncate(q.index(addr + size))
	if isJump {
		q.Jump()
	}
}

// Len returns the byte occupancy. It can be negative right after a
// redirect.
func (q *FetchQueue) Len() int64 {
	return q.length
}

// BlockSize returns the fetch block size in bytes.
func (q *FetchQueue) BlockSize() uint64 {
	return uint64(q.fetchSize)
}

// Reset returns the queue to the post-reset state with one block
// delivered.
func (q *FetchQueue) Reset() {
	q.length = q.fetchSize
	q.newFetch = true
}

func (q *FetchQueue) index(addr uint64) int64 {
	return int64(addr & uint64(q.fetchSize-1))
}

func (q *FetchQueue) crossesBlock(addr, size uint64) bool {
	return q.index(addr) == q.fetchSize-2 && size == 4
}

// truncate drops the bytes between the consumed point and the next block
// boundary so that occupancy stays aligned with the instruction stream.
// The occupancy of the current block is recovered from the counter's low
// bits, which stay congruent with the stream position even when the
// counter has gone negative.
func (q *FetchQueue) truncate(index int64) {
	occupancy := q.fetchSize - q.index(uint64(q.length))
	toRemove := index - occupancy
	if toRemove < 0 {
		toRemove += q.fetchSize
	}
	q.length -= toRemove
}
