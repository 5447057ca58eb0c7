package overlay

import (
	"sync"

	"github.com/dshills/enmity/internal/logbuf"
)

// SafeShutdown returns a function that shuts engine down at most once.
// A panic in the engine is recovered and logged. The function may be
// called concurrently with Proxy.Dispose.
func SafeShutdown(engine Engine, log *logbuf.Logger) func() {
	if log == nil {
		log = logbuf.Discard
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if engine == nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					log.Error("overlay engine shutdown panicked: %v", r)
				}
			}()
			engine.Shutdown()
		})
	}
}
