package safe

import (
	"ChatRelay/logger"
)

// Go starts a goroutine that recovers from panic, so a broken handler
// doesn't take the whole worker down.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] %s panic recovered: %v", name, r)
			}
		}()
		f()
	}()
}

// Run invokes f inline with panic recovery and reports whether it panicked.
func Run(name string, f func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			logger.Errorf("[safe.Run] %s panic recovered: %v", name, r)
		}
	}()
	f()
	return false
}
