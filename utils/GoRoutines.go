package utils

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

type noPanicFunc func()

func (f noPanicFunc) run() {
	defer internalRecover()
	f()
}

// SafeAsync runs the function on a new goroutine and turns a panic into an
// error log instead of a process crash.
func SafeAsync(function noPanicFunc) {
	go function.run()
}

func internalRecover() {
	if err := recover(); err != nil {
		log.Errorf("Async task failed with panic: %v", err)
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
	}
}
