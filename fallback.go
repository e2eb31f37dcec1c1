package zippyjson

import (
	"log"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// needsReference is the pre-flight fallback gate: it reroutes a decode
// call to the reference engine before any parsing when the requested
// configuration cannot be served by the fast path.
func needsReference(o *options) (string, bool) {
	if o.customKeys != nil {
		return "custom key strategy requires the reference decoder", true
	}
	if !hasRequiredCPUFeatures() {
		return "missing required CPU features", true
	}
	return "", false
}

// hasRequiredCPUFeatures reports whether the host CPU carries the
// baseline the fast scanner assumes. Non-amd64 targets always pass.
func hasRequiredCPUFeatures() bool {
	if runtime.GOARCH != "amd64" {
		return true
	}
	return cpuid.CPU.Supports(cpuid.SSE42)
}

// advisory emits a one-time, process-wide note the first time a decode
// call is rerouted to the reference decoder. Subsequent fallbacks are
// silent until re-armed.
type advisory struct {
	mu     sync.Mutex
	fired  bool
	notify func(reason string)
}

func (a *advisory) fire(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fired {
		return
	}
	a.fired = true
	if a.notify != nil {
		a.notify(reason)
	}
}

var fallbackAdvisory = &advisory{
	notify: func(reason string) {
		log.Printf("zippyjson: falling back to reference decoder: %s", reason)
	},
}

// SetFallbackAdvisory replaces the advisory notifier; passing nil
// silences it. Intended for tests and for embedders that route
// diagnostics elsewhere.
func SetFallbackAdvisory(fn func(reason string)) {
	fallbackAdvisory.mu.Lock()
	defer fallbackAdvisory.mu.Unlock()
	fallbackAdvisory.notify = fn
}

// RearmFallbackAdvisory re-arms the one-shot advisory so that the next
// fallback is reported again.
func RearmFallbackAdvisory() {
	fallbackAdvisory.mu.Lock()
	defer fallbackAdvisory.mu.Unlock()
	fallbackAdvisory.fired = false
}
