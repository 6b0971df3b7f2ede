// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool_test

import (
	"errors"
	"testing"
	"unsafe"

	"code.hybscloud.com/opool"
)

type request struct {
	ID    int64
	Flags uint32
	Data  [16]byte
}

// =============================================================================
// Construction
// =============================================================================

// TestCreatePowerOfTwoEnforcement rejects non-power-of-two capacities
// outright rather than rounding them up.
func TestCreatePowerOfTwoEnforcement(t *testing.T) {
	for _, c := range []int{0, 1, 3, 6, 1000} {
		if _, err := opool.Create[request](c); !errors.Is(err, opool.ErrInvalidCapacity) {
			t.Fatalf("Create(%d): got %v, want ErrInvalidCapacity", c, err)
		}
	}
	for _, c := range []int{2, 4, 8, 1024} {
		p, err := opool.Create[request](c)
		if err != nil {
			t.Fatalf("Create(%d): %v", c, err)
		}
		if p.Cap() != c {
			t.Fatalf("Cap(): got %d, want %d", p.Cap(), c)
		}
	}
}

// TestCreateAllowsProcessLocalPointers permits an element type that
// carries a pointer for a local-only pool: spec §4.5 makes this a
// caller obligation, not a checked invariant, precisely because a local
// pool never leaves this process's address space. Only CreateShared and
// AttachShared, where that assumption doesn't hold, reject it (see
// TestCreateSharedRejectsNonTrivialElement).
func TestCreateAllowsProcessLocalPointers(t *testing.T) {
	type withPointer struct {
		Next *int
	}

	p, err := opool.Create[withPointer](4)
	if err != nil {
		t.Fatalf("Create[withPointer]: %v", err)
	}
	defer p.Close()

	n := 42
	v := p.Allocate()
	v.Next = &n
	if *v.Next != 42 {
		t.Fatalf("Next: got %d, want 42", *v.Next)
	}
	p.Free(v)
}

// =============================================================================
// Basic allocate/free
// =============================================================================

// TestAllocateFreeRoundTrip allocates to capacity, frees in reverse
// order, then reallocates; returned pointers must be a permutation of
// the originals, in any order.
func TestAllocateFreeRoundTrip(t *testing.T) {
	p, err := opool.Create[request](4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	original := make(map[uintptr]bool, 4)
	ptrs := make([]*request, 4)
	for i := range ptrs {
		ptrs[i] = p.Allocate()
		ptrs[i].ID = int64(i)
		original[uintptr(unsafe.Pointer(ptrs[i]))] = true
	}

	for i := len(ptrs) - 1; i >= 0; i-- {
		p.Free(ptrs[i])
	}

	reallocated := make([]*request, 4)
	for i := range reallocated {
		reallocated[i] = p.Allocate()
	}

	seen := make(map[uintptr]bool, 4)
	for _, r := range reallocated {
		addr := uintptr(unsafe.Pointer(r))
		if !original[addr] {
			t.Fatalf("reallocated pointer %#x was not one of the original four", addr)
		}
		if seen[addr] {
			t.Fatalf("pointer %#x handed out twice", addr)
		}
		seen[addr] = true
	}
}

// TestAllocateOverflowFallsBackToHeap exhausts the pool then verifies
// a further allocation still returns a non-nil object instead of
// blocking, and that after freeing everything two more allocations
// succeed.
func TestAllocateOverflowFallsBackToHeap(t *testing.T) {
	p, err := opool.Create[request](2)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	a := p.Allocate()
	b := p.Allocate()

	overflow := p.Allocate()
	if overflow == nil {
		t.Fatal("Allocate on exhausted pool returned nil")
	}

	// The fallback object is independent heap memory: freeing it is a
	// no-op, and it must not corrupt pool bookkeeping.
	p.Free(overflow)

	p.Free(a)
	p.Free(b)

	c := p.Allocate()
	d := p.Allocate()
	if c == nil || d == nil {
		t.Fatal("Allocate after Free returned nil")
	}
	p.Free(c)
	p.Free(d)
}

// TestCloseIdempotent verifies a second Close call is harmless.
func TestCloseIdempotent(t *testing.T) {
	p, err := opool.Create[request](4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// TestLocalPoolBackingMode checks the reporting methods for a
// process-local pool.
func TestLocalPoolBackingMode(t *testing.T) {
	p, err := opool.Create[request](4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	if !p.OwnsBacking() {
		t.Fatal("OwnsBacking: got false, want true for a local pool")
	}
	if p.UsesSharedMemory() {
		t.Fatal("UsesSharedMemory: got true, want false for a local pool")
	}
}
