package patterns

import "time"

// DefaultTimeout is the default timeout for HTTP requests
const DefaultTimeout = 3 * time.Second

// SlowServiceTimeout is a longer timeout for the dialogue service, which
// may take several seconds to answer a turn
const SlowServiceTimeout = 10 * time.Second
