package identity

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/voxprep/interview-core/core/identity"

var logger = otelslog.NewLogger(scopeName)
