package sources

import (
	"context"
	"time"
)

// Adapter fetches new content for one account on one platform and
// upserts it into the store. Adapters compose via the Run wrapper rather
// than sharing a base type.
type Adapter interface {
	Source() string
	Account() string
	Fetch(ctx context.Context, since time.Time) error
}
