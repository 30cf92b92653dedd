package logger

import "context"

// Session carries the fields the node-local log format positions ahead of the
// message: [timestamp] [level] [ip:port] [user] message. It travels
// alongside the Logger in a handler's context.
type Session struct {
	Addr   string // remote ip:port, e.g. "10.0.0.4:51922"
	User   string // authenticated username, or "" before INIT/REGISTER
	CorrID string // correlation ID assigned when the session was accepted
}

type sessionKey struct{}

var sessKey = sessionKey{}

// WithSession attaches connection identity to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessKey, s)
}

// SessionFromContext returns the Session attached to ctx, or the zero value.
func SessionFromContext(ctx context.Context) Session {
	if ctx == nil {
		return Session{}
	}
	s, _ := ctx.Value(sessKey).(Session)
	return s
}

// Ctx logs msg at the given level with the session's [ip:port] [user]
// fields prepended, the way every node handler should log.
func (l *Logger) Ctx(ctx context.Context, level Level, msg string, args ...any) {
	s := SessionFromContext(ctx)
	fields := make([]any, 0, len(args)+4)
	if s.Addr != "" {
		fields = append(fields, KeyAddr, s.Addr)
	}
	if s.User != "" {
		fields = append(fields, KeyUser, s.User)
	}
	if s.CorrID != "" {
		fields = append(fields, KeyCorrID, s.CorrID)
	}
	fields = append(fields, args...)
	switch level {
	case LevelDebug:
		l.Debug(msg, fields...)
	case LevelWarn:
		l.Warn(msg, fields...)
	case LevelError:
		l.Error(msg, fields...)
	default:
		l.Info(msg, fields...)
	}
}
