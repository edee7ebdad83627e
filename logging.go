// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	logging "github.com/op/go-logging"
)

// log is the module logger. Hosts configure backends and levels through the
// go-logging package using the "vnc" module name.
var log = logging.MustGetLogger("vnc")
