package executor

import "time"

const (
	// budgetFloor is the minimum deadline for any staging or parsing
	// step, regardless of size.
	budgetFloor = 900 * time.Second

	// downloadRate and parseRate are the assumed worst-case throughput
	// used to scale deadlines with byte size.
	downloadRate = 12500 // bytes per second
	parseRate    = 1250  // bytes per second
)

// stageBudget returns the download deadline for a plan's total bytes.
func stageBudget(size int64) time.Duration {
	return budgetFloor + time.Duration(size/downloadRate)*time.Second
}

// parseBudget returns the deadline for extracting an item.
func parseBudget(size int64) time.Duration {
	return budgetFloor + time.Duration(size/parseRate)*time.Second
}
