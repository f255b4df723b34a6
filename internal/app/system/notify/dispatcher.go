// internal/app/system/notify/dispatcher.go
package notify

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fieldops/movelog/internal/app/store/notifications"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
	"github.com/fieldops/movelog/internal/app/system/roles"
)

// Dispatcher fans lifecycle messages out to the right audiences.
// Delivery failures are logged and swallowed: a missed notification
// must never fail the movement operation that triggered it.
type Dispatcher struct {
	users *userstore.Store
	notes *notifications.Store
	log   *zap.Logger
}

func New(users *userstore.Store, notes *notifications.Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{users: users, notes: notes, log: logger}
}

// MovementCreated tells every system administrator a new entry landed.
func (d *Dispatcher) MovementCreated(ctx context.Context, seq int64) {
	msg := fmt.Sprintf("A new Entry has been submitted (Movement #%d).", seq)
	d.fanOutByRole(ctx, msg, roles.SystemAdministrator)
}

// MovementAcknowledged tells the senior field engineers an entry is
// ready for assignment.
func (d *Dispatcher) MovementAcknowledged(ctx context.Context, seq int64) {
	msg := fmt.Sprintf("Movement #%d has been acknowledged and is ready for assignment.", seq)
	d.fanOutByRole(ctx, msg, roles.SeniorFieldEngineer)
}

// MovementAssigned tells the chosen supervisor about their new entry.
func (d *Dispatcher) MovementAssigned(ctx context.Context, seq int64, supervisorID primitive.ObjectID) {
	msg := fmt.Sprintf("A new Entry has been assigned to you (Movement #%d).", seq)
	if err := d.notes.Create(ctx, supervisorID, msg); err != nil {
		d.log.Error("notification delivery failed",
			zap.Int64("movement", seq),
			zap.String("user_id", supervisorID.Hex()),
			zap.Error(err))
	}
}

func (d *Dispatcher) fanOutByRole(ctx context.Context, message string, roleNames ...string) {
	ids, err := d.users.IDsByRole(ctx, roleNames...)
	if err != nil {
		d.log.Error("notification audience lookup failed",
			zap.Strings("roles", roleNames),
			zap.Error(err))
		return
	}
	if err := d.notes.CreateMany(ctx, ids, message); err != nil {
		d.log.Error("notification delivery failed",
			zap.Strings("roles", roleNames),
			zap.Int("recipients", len(ids)),
			zap.Error(err))
	}
}
