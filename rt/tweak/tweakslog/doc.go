// Package tweakslog provides small helpers to bind tweaks to log/slog.
//
// Observer logs every committed store event. LevelDefinition and BindLevel
// expose a slog.LevelVar as an int tweak (debug=-4, info=0, warn=4, error=8).
//
// Note: store observers run synchronously on the write path. Do NOT wire a
// slow slog.Handler here.
package tweakslog
