package metrics

import "go.uber.org/fx"

// Module provides service metrics.
var Module = fx.Provide(New)
