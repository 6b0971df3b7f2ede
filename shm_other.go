// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package opool

func createSharedSegment(name string, layout regionLayout) (*backing, error) {
	return nil, ErrUnsupportedPlatform
}

func attachSharedSegment(name string, elemSize, elemAlign uintptr) (*backing, error) {
	return nil, ErrUnsupportedPlatform
}
