package memory_test

import (
	"fmt"

	"github.com/SilentCathedral918/vytal-sub000/memory"
)

func ExampleComputeSizeClasses() {
	fmt.Println(memory.ComputeSizeClasses(64))
	// Output: [8 16 32 56 64]
}

func ExampleManager() {
	mgr, err := memory.New([]memory.ZoneSpec{{Name: "Containers", Capacity: 64}})
	if err != nil {
		panic(err)
	}
	defer mgr.Close()

	ref, block, _ := mgr.Allocate("Containers", 20)
	fmt.Println(ref, len(block), cap(block))

	_ = mgr.Deallocate("Containers", ref, 20)
	again, _, _ := mgr.Allocate("Containers", 30)
	fmt.Println(again == ref)
	// Output:
	// 0 20 32
	// true
}
