// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Pool is a fixed-capacity, lock-free, multi-producer multi-consumer
// pool of trivially copyable objects of type T. A *Pool[T] is safe for
// concurrent use by any number of goroutines calling Allocate and Free.
//
// A Pool is backed by either process-local heap memory or a named
// shared-memory segment; see Create, CreateShared and AttachShared.
type Pool[T any] struct {
	b *backing

	reserved *atomix.Uint64 // next ticket Allocate will draw
	consumed *atomix.Uint64 // next ticket Free will draw

	capacity uint64
	mask     uint64

	region []byte
	layout regionLayout

	mode BackingMode
	name string

	closeOnce sync.Once
	closeErr  error
}

func elemType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func newPoolFromBacking[T any](b *backing) *Pool[T] {
	capacity := b.layout.capacity
	return &Pool[T]{
		b:        b,
		reserved: headerUint64(b.region, offReserved),
		consumed: headerUint64(b.region, offConsumed),
		capacity: capacity,
		mask:     capacity - 1,
		region:   b.region,
		layout:   b.layout,
		mode:     b.mode,
		name:     b.name,
	}
}

// Create builds a process-local pool of the given capacity, which must
// be a power of two no smaller than 2 (spec §4.2). Unlike CreateShared
// and AttachShared, Create does not require T to be trivially copyable:
// a local pool never leaves this process's address space, so a type
// carrying process-local pointers is sound here, at the caller's own
// risk (spec §4.5).
func Create[T any](capacity int) (*Pool[T], error) {
	if !isPow2(capacity) {
		return nil, fmt.Errorf("opool: create: %w", ErrInvalidCapacity)
	}
	// No trivially-copyable check here: spec §4.5 permits element types
	// that embed process-local pointers in local mode, as a caller
	// obligation rather than a checked invariant. Only the shared-memory
	// constructors, where an unsound type would corrupt another process's
	// address space, verify it.

	var zero T
	layout := computeLayout(uint64(capacity), unsafe.Sizeof(zero), unsafe.Alignof(zero))
	b := newLocalBacking(layout)
	initSequences(b.region, layout)

	return newPoolFromBacking[T](b), nil
}

// CreateShared builds a pool backed by a newly created named
// shared-memory segment and becomes its owner. name must not already
// be in use; see ErrSegmentExists. The owner must outlive every client
// attached via AttachShared (spec §5).
func CreateShared[T any](capacity int, name string) (*Pool[T], error) {
	if !isPow2(capacity) {
		return nil, fmt.Errorf("opool: create_shared: %w", ErrInvalidCapacity)
	}
	if name == "" {
		return nil, fmt.Errorf("opool: create_shared: segment name must not be empty")
	}
	if err := verifyTrivialLayout(elemType[T]()); err != nil {
		return nil, fmt.Errorf("opool: create_shared: %w", err)
	}

	var zero T
	layout := computeLayout(uint64(capacity), unsafe.Sizeof(zero), unsafe.Alignof(zero))
	b, err := createSharedSegment(name, layout)
	if err != nil {
		return nil, fmt.Errorf("opool: create_shared: %w", err)
	}
	initSequences(b.region, layout)
	publishReady(b.region, uint64(capacity))

	return newPoolFromBacking[T](b), nil
}

// AttachShared attaches to an existing named shared-memory segment as a
// client. It blocks, bounded, until the owner's initialization handshake
// is visible, then validates capacity and layout against T. The caller
// must not call CreateShared/AttachShared concurrently with the owner's
// own CreateShared for the same name (spec §5, single-writer-as-owner).
func AttachShared[T any](name string) (*Pool[T], error) {
	if name == "" {
		return nil, fmt.Errorf("opool: attach_shared: segment name must not be empty")
	}
	if err := verifyTrivialLayout(elemType[T]()); err != nil {
		return nil, fmt.Errorf("opool: attach_shared: %w", err)
	}

	var zero T
	b, err := attachSharedSegment(name, unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if err != nil {
		return nil, fmt.Errorf("opool: attach_shared: %w", err)
	}

	return newPoolFromBacking[T](b), nil
}

// Cap returns the pool's fixed capacity.
func (p *Pool[T]) Cap() int {
	return int(p.capacity)
}

// OwnsBacking reports whether this handle owns its backing store (local
// pools and shared owners do; shared clients do not).
func (p *Pool[T]) OwnsBacking() bool {
	return p.mode != BackingSharedClient
}

// UsesSharedMemory reports whether this pool is backed by a named
// shared-memory segment rather than process-local heap memory.
func (p *Pool[T]) UsesSharedMemory() bool {
	return p.mode != BackingLocal
}

// Close releases the pool's backing store. For a local pool this is a
// no-op. For a shared owner it unmaps and unlinks the segment. For a
// shared client it only unmaps. Close must not be called while other
// goroutines are still calling Allocate or Free (spec §5).
func (p *Pool[T]) Close() error {
	p.closeOnce.Do(func() {
		if p.b.release != nil {
			p.closeErr = p.b.release()
		}
	})
	return p.closeErr
}

// isPoolPointer reports whether ptr addresses one of this pool's
// payload slots, as opposed to a heap object handed out by the
// overflow fallback path (spec §4.3).
func (p *Pool[T]) isPoolPointer(ptr *T) bool {
	if ptr == nil || len(p.region) == 0 {
		return false
	}
	base := uintptr(unsafe.Pointer(&p.region[p.layout.payloadOff]))
	end := base + uintptr(p.capacity)*p.layout.elemSize
	addr := uintptr(unsafe.Pointer(ptr))
	return addr >= base && addr < end
}

// Allocate returns a pointer to an unused slot and marks it occupied.
// If every slot is currently occupied, Allocate falls back to a regular
// heap allocation instead of blocking or failing (spec §4.1, §4.3). The
// returned pointer is stable and remains valid, uninterpreted by the
// pool, until passed to Free.
func (p *Pool[T]) Allocate() *T {
	sw := spin.Wait{}
	for {
		t := p.reserved.LoadAcquire()
		seq := seqAt(p.region, p.layout, t&p.mask)
		s := seq.LoadAcquire()
		diff := int64(s) - int64(t)
		switch {
		case diff == 0:
			if p.reserved.CompareAndSwapAcqRel(t, t+1) {
				seq.StoreRelease(t + 1)
				return payloadAt[T](p.region, p.layout, t&p.mask)
			}
		case diff < 0:
			return new(T)
		}
		sw.Once()
	}
}

// Free returns ptr to the pool. ptr must have been returned by a prior
// Allocate on this pool and must not already have been freed; violating
// either precondition is undefined behavior (spec §4.2). A pointer that
// did not originate from this pool's payload region — i.e. one produced
// by the overflow fallback — is left for the garbage collector and
// Free is a no-op for it, since Go has no explicit free() to route it
// to.
func (p *Pool[T]) Free(ptr *T) {
	if !p.isPoolPointer(ptr) {
		return
	}
	sw := spin.Wait{}
	for {
		c := p.consumed.LoadAcquire()
		slot := seqAt(p.region, p.layout, c&p.mask)
		s := slot.LoadAcquire()
		diff := int64(s) - int64(c+1)
		switch {
		case diff == 0:
			if p.consumed.CompareAndSwapAcqRel(c, c+1) {
				slot.StoreRelease(c + p.capacity)
				return
			}
		case diff < 0:
			if p.reserved.LoadAcquire() > c {
				// An Allocate has claimed ticket c but not yet
				// published its sequence; wait for it.
				break
			}
			// No allocation holds ticket c. A well-behaved caller
			// only reaches this for a pool pointer that was already
			// freed once; nothing safe to do here beyond refusing to
			// corrupt pool state.
			return
		}
		sw.Once()
	}
}
