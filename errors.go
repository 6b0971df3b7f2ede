// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool

import "errors"

// Construction-time errors. Per-operation calls (Allocate, Free) never
// surface errors: pool exhaustion routes to the heap fallback instead of
// failing, and Free's preconditions (the pointer originates from this
// pool, no double-free) are caller obligations, not runtime-checked
// failures. See spec §7.
var (
	// ErrInvalidCapacity is returned when capacity is not a power of two
	// or is below the minimum of 2.
	ErrInvalidCapacity = errors.New("opool: capacity must be a power of two >= 2")

	// ErrInvalidElementType is returned when the element type fails the
	// trivially-copyable / standard-layout check required for shared-memory
	// backing (see §4.5).
	ErrInvalidElementType = errors.New("opool: element type is not trivially copyable")

	// ErrSegmentExists is returned by CreateShared when a segment with the
	// given name already exists; ownership creation is exclusive.
	ErrSegmentExists = errors.New("opool: shared segment already exists")

	// ErrSegmentNotFound is returned by AttachShared when no segment with
	// the given name exists.
	ErrSegmentNotFound = errors.New("opool: shared segment not found")

	// ErrIncompatibleSegment is returned when an existing segment does not
	// pass the owner/client handshake (magic word never published within
	// the bounded spin-wait) or fails the layout sanity check.
	ErrIncompatibleSegment = errors.New("opool: shared segment is incompatible or not yet initialized")

	// ErrUnsupportedPlatform is returned by CreateShared/AttachShared on
	// platforms without a shared-memory collaborator implementation.
	ErrUnsupportedPlatform = errors.New("opool: shared memory is not supported on this platform")
)
