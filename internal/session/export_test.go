// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

package session

import "time"

// SetClock replaces the registry's time source in tests.
func SetClock(r *Registry, now func() time.Time) {
	r.now = now
}
