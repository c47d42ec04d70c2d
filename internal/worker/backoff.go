package worker

import (
	"time"

	"github.com/smallbiznis/scriptly/internal/config"
)

// backoffDelay computes the requeue delay before the given attempt
// number runs again. attempt is 1-based and counts the attempt that
// just failed.
func backoffDelay(policy config.RetryPolicy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	switch policy.Policy {
	case "fixed":
		return policy.BaseDelay
	default: // exponential
		delay := policy.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay >= policy.MaxDelay {
				return policy.MaxDelay
			}
		}
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			return policy.MaxDelay
		}
		return delay
	}
}
