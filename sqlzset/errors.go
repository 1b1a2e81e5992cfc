package sqlzset

import "github.com/syssam/stepping"

// ErrFrontierTimeout is an alias for the root package's sentinel, returned
// by WaitForFrontier when a poll exceeds its deadline (spec §4.4/§5).
var ErrFrontierTimeout = stepping.ErrFrontierTimeout
