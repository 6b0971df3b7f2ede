// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool

// BackingMode identifies which of the two storage facilities described
// in spec §1 is backing a Pool.
type BackingMode int

const (
	// BackingLocal is process-local heap memory; no other process can
	// see it, and Close is a no-op (the GC reclaims it).
	BackingLocal BackingMode = iota
	// BackingSharedOwner is a named shared-memory segment created and
	// owned by this Pool; Close unlinks and unmaps it.
	BackingSharedOwner
	// BackingSharedClient is a named shared-memory segment this Pool
	// attached to but does not own; Close only unmaps it.
	BackingSharedClient
)

// backing is the single region abstraction that both storage facilities
// are reduced to: a []byte of identical internal layout (spec §4.4),
// differing only in how the bytes were obtained and how they are
// released.
type backing struct {
	region  []byte
	layout  regionLayout
	mode    BackingMode
	name    string
	release func() error // nil for BackingLocal
}

func newLocalBacking(layout regionLayout) *backing {
	region := alignedBuffer(int(layout.totalSize), layout.elemAlign)
	return &backing{
		region: region,
		layout: layout,
		mode:   BackingLocal,
	}
}
