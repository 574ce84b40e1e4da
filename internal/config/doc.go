// Package config loads and validates the scoring configuration.
//
// Config fields:
//   - MinimumScoreThreshold: pass mark on the 0-1000 scale (default 500)
//   - MinimumStarsForQuality: star floor for a "quality" repository (default 100)
//   - AnalysisWindowMonths: trailing look-back window (default 12)
//   - NewAccountThresholdDays: accounts younger than this are flagged new (default 30)
//   - Mode: "weighted" (default) or "threshold"
//   - Weights: eight per-metric weights, expected to sum to 1.0
//   - Thresholds: breakpoints of every normalization curve
//   - Fetch: GraphQL endpoint, retry and rate-limit settings
//   - Server: listen address and result cache TTL for the serve command
//
// Load(path) applies defaults before unmarshalling, then environment overrides
// (GITHUB_TOKEN, CQ_*), then validates. Out-of-range values fail fast; weights
// that do not sum to 1.0 only log a warning.
package config
