// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package opool provides a fixed-capacity, lock-free, multi-producer
// multi-consumer pool of trivially copyable objects.
//
// A Pool hands out stable pointers via Allocate and reclaims them via
// Free. Unlike a queue, a pointer returned by Allocate stays valid for
// however long the caller holds it — there is no requirement to drain
// the pool in any particular order. When every slot is occupied,
// Allocate falls back to a plain heap allocation instead of blocking.
//
// A pool is backed by either process-local heap memory or a named
// shared-memory segment, so the same object can be handed out to
// goroutines in this process or to other processes attached to the
// same segment.
//
// # Quick Start
//
//	p, err := opool.Create[Request](1024)
//	if err != nil {
//	    // capacity not a power of two
//	}
//	defer p.Close()
//
//	req := p.Allocate()
//	*req = Request{ID: 7}
//	// ... use req ...
//	p.Free(req)
//
// # Shared Memory
//
// One process creates and owns the segment:
//
//	owner, err := opool.CreateShared[Frame](256, "video-frames")
//	if err != nil {
//	    // segment already exists, or the platform has no shared-memory support
//	}
//	defer owner.Close() // unmaps and unlinks
//
// Another process attaches to it by name:
//
//	client, err := opool.AttachShared[Frame]("video-frames")
//	if err != nil {
//	    // segment not found, or the owner never finished initializing it
//	}
//	defer client.Close() // unmaps only
//
// The owner must outlive every attached client. A client never unlinks
// the segment; only the owner's Close does.
//
// # Element Types
//
// For a shared pool, T must be trivially copyable: no pointers,
// interfaces, maps, channels, funcs, slices or strings may be reachable
// from it, directly or through nested structs and arrays. CreateShared
// and AttachShared reject an unsuitable T with ErrInvalidElementType.
// This is checked once, at construction, with reflection — never on the
// allocate/free path. Create performs no such check: a local pool
// accepts any T, including one that carries pointers.
//
// # Error Handling
//
// Allocate and Free never return an error. Construction can fail; see
// ErrInvalidCapacity, ErrInvalidElementType, ErrSegmentExists,
// ErrSegmentNotFound, ErrIncompatibleSegment and ErrUnsupportedPlatform.
//
// # Thread Safety
//
// Allocate and Free are safe for concurrent use by any number of
// goroutines, and across process boundaries for shared pools. Creating,
// attaching to, and closing a pool are not: the owner must finish
// CreateShared before any client calls AttachShared, and Close must not
// race with in-flight Allocate/Free calls.
//
// # Race Detection
//
// Correctness here rests on acquire/release orderings on plain atomic
// words, with no mutex or channel to give the race detector a
// happens-before edge it can see. Tests that stress the concurrent path
// are skipped under -race; see RaceEnabled.
package opool
