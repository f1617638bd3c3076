// Package tools provides the tools a model can call instead of emitting UI.
//
// Service implements the builtin tools against public APIs (Open-Meteo,
// CoinGecko) with mock fallbacks. Firewall checks call arguments against
// per-tool JSON Schemas and Cache stores results by call fingerprint. Both
// wrap any ports.ToolExecutor, so they compose around a registry.Registry:
//
//	reg := registry.NewRegistry()
//	tools.NewService().Register(reg)
//	fw, _ := tools.NewFirewall(reg, reg.Tools())
//	exec := tools.NewCache(fw, cache, locker)
package tools
