// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// cacheLine is the assumed hardware cache line size used to keep the
// producer and consumer index apart (spec §3, Index pair).
const cacheLine = 64

// headerSize is the two-cache-line header described in spec §4.4:
// cache line A holds the owner/client handshake word, the read-only
// capacity, and the reserved (producer) ticket counter; cache line B
// holds the consumed (consumer) ticket counter.
const headerSize = 2 * cacheLine

const (
	offMagic    = uintptr(0)
	offCapacity = uintptr(8)
	offReserved = uintptr(16)
	offConsumed = uintptr(cacheLine)
	offSeqArray = uintptr(headerSize)
)

// magicReady is written by the owner, with release ordering, as the
// final step of segment initialization (spec §4.4). A client reads it
// with acquire ordering and must not trust any other field in the
// segment until it observes this exact value.
const magicReady uint64 = 0x4f504f4f4c313030

func isPow2(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

func alignUp(v, align uintptr) uintptr {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// regionLayout is the byte-offset map of a pool's backing region. The
// same layout, and the same accessor arithmetic below, apply whether the
// region is a heap-allocated []byte (local mode) or an mmap'd []byte
// (shared mode) — this is the "dual-backing of the same control
// structure" spec §1 calls for.
type regionLayout struct {
	capacity    uint64
	elemSize    uintptr
	elemAlign   uintptr
	seqArrayOff uintptr
	payloadOff  uintptr
	totalSize   uintptr
}

func computeLayout(capacity uint64, elemSize, elemAlign uintptr) regionLayout {
	seqArraySize := uintptr(capacity) * 8
	payloadOff := alignUp(offSeqArray+seqArraySize, elemAlign)
	total := payloadOff + uintptr(capacity)*elemSize
	return regionLayout{
		capacity:    capacity,
		elemSize:    elemSize,
		elemAlign:   elemAlign,
		seqArrayOff: offSeqArray,
		payloadOff:  payloadOff,
		totalSize:   total,
	}
}

// alignedBuffer allocates a []byte of at least size bytes whose first
// byte address is aligned to align. Go's allocator only documents 8-byte
// alignment for arbitrary byte slices, so for elements with a stricter
// alignment requirement this over-allocates and slices to the first
// aligned offset; the original backing array stays referenced by the
// returned slice, so the allocation is never moved by the GC (Go does
// not compact the heap).
func alignedBuffer(size int, align uintptr) []byte {
	if align <= 8 {
		n := (size + 7) / 8
		if n == 0 {
			n = 1
		}
		words := make([]uint64, n)
		return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), n*8)[:size]
	}
	raw := make([]byte, size+int(align))
	base := uintptr(unsafe.Pointer(&raw[0]))
	offset := alignUp(base, align) - base
	return raw[offset : offset+uintptr(size)]
}

func headerUint64(region []byte, off uintptr) *atomix.Uint64 {
	return (*atomix.Uint64)(unsafe.Pointer(&region[off]))
}

func seqAt(region []byte, layout regionLayout, idx uint64) *atomix.Uint64 {
	off := layout.seqArrayOff + uintptr(idx)*8
	return (*atomix.Uint64)(unsafe.Pointer(&region[off]))
}

func payloadAt[T any](region []byte, layout regionLayout, idx uint64) *T {
	off := layout.payloadOff + uintptr(idx)*layout.elemSize
	return (*T)(unsafe.Pointer(&region[off]))
}

func initSequences(region []byte, layout regionLayout) {
	for i := uint64(0); i < layout.capacity; i++ {
		seqAt(region, layout, i).StoreRelaxed(i)
	}
}

// publishReady writes the handshake fields an attaching client waits on:
// capacity first (plain store), then the magic word last with release
// ordering, exactly as spec §4.4 requires ("writes a magic marker and
// the capacity value last, with release ordering, as the final
// initialization step").
func publishReady(region []byte, capacity uint64) {
	*(*uint64)(unsafe.Pointer(&region[offCapacity])) = capacity
	headerUint64(region, offMagic).StoreRelease(magicReady)
}
