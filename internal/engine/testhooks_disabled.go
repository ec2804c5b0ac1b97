//go:build !zenithtesthooks

package engine

// testHookCancelAfterFiles is a no-op outside test builds: the engine
// never self-cancels.
func testHookCancelAfterFiles() int { return 0 }
