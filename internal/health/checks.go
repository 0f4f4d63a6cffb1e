package health

import (
	"fmt"

	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
)

// CollectionCheck reports unhealthy until source has published a
// collection, and degraded while the published collection is empty.
func CollectionCheck(source endpoint.Source) CheckFunc {
	return func() Check {
		coll := source.Collection()
		switch {
		case coll == nil || coll.Version == 0:
			return Check{Status: StatusUnhealthy, Message: "no endpoint collection published"}
		case coll.Len() == 0:
			return Check{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("collection version %d has no endpoints", coll.Version),
			}
		default:
			return Check{
				Status:  StatusHealthy,
				Message: fmt.Sprintf("collection version %d, %d endpoints", coll.Version, coll.Len()),
			}
		}
	}
}
