package deepgram

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/voxprep/interview-core/core/voice/deepgram"

var logger = otelslog.NewLogger(scopeName)
