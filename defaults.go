package cacheable

import "time"

// DefaultTTL is applied when neither the Descriptor nor Options set a TTL.
const DefaultTTL = 300 * time.Second
