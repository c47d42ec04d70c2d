package domain

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// JobDedupKey keys the queued send for a publication so poller ticks
// that overlap enqueue it at most once.
func JobDedupKey(id snowflake.ID) string {
	return fmt.Sprintf("publish:%d", id)
}
