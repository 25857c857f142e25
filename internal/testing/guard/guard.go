// Package guard forces test mode before any package under test can spin up
// runtime side effects. Import it for side effects from _test files.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BALCAO_TEST_MODE") == "" {
			_ = os.Setenv("BALCAO_TEST_MODE", "1")
		}
	})
}
