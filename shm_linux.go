// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package opool

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"code.hybscloud.com/spin"
)

// shmPath maps a segment name to its /dev/shm path verbatim, without
// cleaning or otherwise altering it (spec §6: the core must not alter
// the name it is given).
func shmPath(name string) string {
	return "/dev/shm/" + name
}

// handshakeSpinBound caps how long attachSharedSegment spins waiting
// for an owner to publish the ready marker before giving up. It is a
// count of spin.Wait.Once backoff steps, not a wall-clock duration.
const handshakeSpinBound = 1 << 20

func createSharedSegment(name string, layout regionLayout) (*backing, error) {
	path := shmPath(name)
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CREAT|syscall.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, syscall.EEXIST) {
			return nil, ErrSegmentExists
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	pageSize := uintptr(os.Getpagesize())
	size := alignUp(layout.totalSize, pageSize)

	if err := syscall.Ftruncate(fd, int64(size)); err != nil {
		_ = syscall.Close(fd)
		_ = syscall.Unlink(path)
		return nil, fmt.Errorf("ftruncate %s: %w", path, err)
	}

	data, err := syscall.Mmap(fd, 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	_ = syscall.Close(fd)
	if err != nil {
		_ = syscall.Unlink(path)
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	return &backing{
		region: data,
		layout: layout,
		mode:   BackingSharedOwner,
		name:   name,
		release: func() error {
			unlinkErr := syscall.Unlink(path)
			munmapErr := syscall.Munmap(data)
			if munmapErr != nil {
				return munmapErr
			}
			return unlinkErr
		},
	}, nil
}

func attachSharedSegment(name string, elemSize, elemAlign uintptr) (*backing, error) {
	path := shmPath(name)
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, syscall.ENOENT) {
			return nil, ErrSegmentNotFound
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var stat syscall.Stat_t
	if err := syscall.Fstat(fd, &stat); err != nil {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("fstat %s: %w", path, err)
	}
	size := stat.Size
	if size <= int64(headerSize) {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("%s: %w", path, ErrIncompatibleSegment)
	}

	data, err := syscall.Mmap(fd, 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	_ = syscall.Close(fd)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	magic := headerUint64(data, offMagic)
	sw := spin.Wait{}
	ready := false
	for i := 0; i < handshakeSpinBound; i++ {
		if magic.LoadAcquire() == magicReady {
			ready = true
			break
		}
		sw.Once()
	}
	if !ready {
		_ = syscall.Munmap(data)
		return nil, fmt.Errorf("%s: %w", path, ErrIncompatibleSegment)
	}

	capacity := *(*uint64)(unsafe.Pointer(&data[offCapacity]))
	if !isPow2(int(capacity)) {
		_ = syscall.Munmap(data)
		return nil, fmt.Errorf("%s: %w", path, ErrIncompatibleSegment)
	}

	layout := computeLayout(capacity, elemSize, elemAlign)
	if uintptr(len(data)) < layout.totalSize {
		_ = syscall.Munmap(data)
		return nil, fmt.Errorf("%s: %w", path, ErrIncompatibleSegment)
	}

	return &backing{
		region: data,
		layout: layout,
		mode:   BackingSharedClient,
		name:   name,
		release: func() error {
			return syscall.Munmap(data)
		},
	}, nil
}
