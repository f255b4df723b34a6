// internal/app/store/userpurge/purge.go
package userpurge

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fieldops/movelog/internal/app/store/audit"
	"github.com/fieldops/movelog/internal/app/store/kb"
	"github.com/fieldops/movelog/internal/app/store/movements"
	"github.com/fieldops/movelog/internal/app/store/notifications"
	userstore "github.com/fieldops/movelog/internal/app/store/users"
)

// Purger removes a user together with everything hanging off them.
// Callers wrap Purge in a transaction; Purge itself only sequences the
// per-collection steps.
type Purger struct {
	Users         *userstore.Store
	Movements     *movements.Store
	Notifications *notifications.Store
	Audit         *audit.Store
	KB            *kb.Store
}

// Purge deletes one user and their dependent records. Movements,
// knowledge base entries and audit history the user authored disappear,
// along with notifications addressed to them; movements they supervised
// or decided survive with the reference cleared; direct reports are
// detached, not deleted. Returns userstore.ErrNotFound when the user
// does not exist.
func (p *Purger) Purge(ctx context.Context, id primitive.ObjectID) error {
	if err := p.Movements.DeleteByStaff(ctx, id); err != nil {
		return err
	}
	if err := p.Users.ClearSupervisor(ctx, id); err != nil {
		return err
	}
	if err := p.Movements.ClearAssignee(ctx, id); err != nil {
		return err
	}
	if err := p.Movements.ClearApprover(ctx, id); err != nil {
		return err
	}
	if err := p.Audit.DeleteForActor(ctx, id); err != nil {
		return err
	}
	if err := p.KB.DeleteByCreator(ctx, id); err != nil {
		return err
	}
	if err := p.Notifications.DeleteForUser(ctx, id); err != nil {
		return err
	}
	return p.Users.Delete(ctx, id)
}

// PurgeMany runs the cascade for each listed user. Missing users fail
// the batch so a transactional caller rolls the whole thing back.
func (p *Purger) PurgeMany(ctx context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if err := p.Purge(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
