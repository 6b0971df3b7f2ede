// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package opool

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent tests that trigger false positives
// because the race detector cannot observe happens-before edges carried
// by atomic-only memory ordering (acquire/release on sequence and index
// counters, with no mutex or channel in between).
const RaceEnabled = true
