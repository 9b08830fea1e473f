// Package logx configures botreplymsg's structured logging.
//
// A thin wrapper (logx.Logger) on top of zerolog keeps:
//   - console output readable (short timestamp + short caller)
//   - file output JSON-structured
//   - an optional alert sink for warn+ records (min-level + rate limiting)
package logx
