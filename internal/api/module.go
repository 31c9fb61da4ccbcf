package api

import "go.uber.org/fx"

// Module provides the HTTP/WS layer for fx composition (cmd/server/main.go),
// following the teacher's fx.Options-per-package idiom
// (internal/api/module.go).
var Module = fx.Options(
	fx.Provide(NewHandlers),
	fx.Provide(NewRouter),
)
