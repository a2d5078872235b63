// Package lifecycle holds timing constants shared by start/stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds every fx OnStart/OnStop hook that talks to the network.
const DefaultTimeout = 10 * time.Second
