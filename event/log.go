// Copyright (c) 2016 BLOCKO INC.
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package event

import "github.com/btcsuite/btclog"

// log is the package-level logger used throughout event. It is
// disabled by default and wired by the importing daemon's log.go via
// UseLogger, matching the per-subsystem logger pattern described in
// SPEC_FULL.md §10.
var log = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info. This
// should be used in preference to SetLogWriter if the caller is also
// using btclog.
func UseLogger(logger btclog.Logger) {
	log = logger
}
