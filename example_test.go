// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package opool_test

import (
	"fmt"

	"code.hybscloud.com/opool"
)

type job struct {
	ID int64
}

// ExamplePool_Allocate demonstrates the basic allocate/free cycle for a
// process-local pool.
func ExamplePool_Allocate() {
	p, err := opool.Create[job](4)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	j := p.Allocate()
	j.ID = 7
	fmt.Println(j.ID)
	p.Free(j)

	// Output:
	// 7
}
