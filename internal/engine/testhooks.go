//go:build zenithtesthooks

package engine

import (
	"os"
	"strconv"
)

// testHookCancelAfterFiles mirrors the original C++ implementation's
// ZENITHSEARCH_ENABLE_TEST_HOOKS build switch: when this build tag is
// set and ZENITHSEARCH_TEST_CANCEL_AFTER_FILES holds a positive integer
// N, the engine cancels itself after N files have finished scanning, so
// tests can exercise mid-run cancellation deterministically.
func testHookCancelAfterFiles() int {
	v, ok := os.LookupEnv("ZENITHSEARCH_TEST_CANCEL_AFTER_FILES")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
