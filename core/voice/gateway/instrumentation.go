package gateway

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/voxprep/interview-core/core/voice/gateway"

var logger = otelslog.NewLogger(scopeName)
