// internal/app/system/auditlog/recorder.go
package auditlog

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/audit"
)

// Mode controls where audit entries go.
//
//	all: persist to Mongo and mirror to the zap logger
//	db:  persist only
//	log: zap only (no persistence; /api/audit will be empty)
//	off: drop everything
type Mode string

const (
	ModeAll Mode = "all"
	ModeDB  Mode = "db"
	ModeLog Mode = "log"
	ModeOff Mode = "off"
)

// ParseMode maps a config string to a Mode, defaulting to ModeAll.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return Mode(s)
	default:
		return ModeAll
	}
}

// Recorder writes audit entries for the handlers. Failures are logged and
// swallowed: an audit write must never fail the request that caused it.
type Recorder struct {
	store *audit.Store
	log   *zap.Logger
	mode  Mode
}

// New creates a Recorder over the given store.
func New(store *audit.Store, logger *zap.Logger, mode Mode) *Recorder {
	return &Recorder{store: store, log: logger, mode: mode}
}

// Record appends one entry attributed to actorID (nil for system actions).
func (r *Recorder) Record(ctx context.Context, actorID *primitive.ObjectID, action, details string) {
	if r == nil || r.mode == ModeOff {
		return
	}
	if r.mode == ModeAll || r.mode == ModeLog {
		fields := []zap.Field{
			zap.String("action", action),
			zap.String("details", details),
		}
		if actorID != nil {
			fields = append(fields, zap.String("actor_id", actorID.Hex()))
		}
		r.log.Info("audit", fields...)
	}
	if r.mode == ModeAll || r.mode == ModeDB {
		err := r.store.Append(ctx, audit.Entry{
			ActorID: actorID,
			Action:  action,
			Details: details,
		})
		if err != nil {
			r.log.Error("audit append failed",
				zap.String("action", action),
				zap.Error(err))
		}
	}
}

// System records an entry with no actor.
func (r *Recorder) System(ctx context.Context, action, details string) {
	r.Record(ctx, nil, action, details)
}
