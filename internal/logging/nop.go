package logging

import "context"

// NopLogger discards everything. Handy default for tests and for library
// constructors that accept an optional logger.
type NopLogger struct{}

var _ Logger = NopLogger{}

func NewNop() NopLogger { return NopLogger{} }

func (NopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (NopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (NopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (NopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n NopLogger) With(args ...any) Logger                          { return n }
