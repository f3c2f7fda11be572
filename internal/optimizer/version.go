package optimizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// nextVersion increments a vN label; any other labeling scheme restarts the
// sequence at the current unix timestamp so versions stay unique.
func nextVersion(current string) string {
	if strings.HasPrefix(strings.ToLower(current), "v") {
		if n, err := strconv.Atoi(current[1:]); err == nil {
			return fmt.Sprintf("v%d", n+1)
		}
	}
	return fmt.Sprintf("v%d", time.Now().Unix())
}
