// internal/domain/models/movement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Movement lifecycle statuses. A movement moves forward through
// pending → acknowledged → assigned → approved|rejected; claiming takes an
// unassigned movement straight to assigned.
const (
	MovementPending      = "pending"
	MovementAcknowledged = "acknowledged"
	MovementAssigned     = "assigned"
	MovementApproved     = "approved"
	MovementRejected     = "rejected"
)

// Movement is a single field-trip record subject to the approval workflow.
//
// Seq is the public movement number ("Movement #N") allocated from the
// counters collection; ID is the canonical document key. Dates and times are
// kept as the ISO strings the clients submit ("2006-01-02", "15:04"), which
// also gives lexicographic date ordering for free.
type Movement struct {
	ID  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Seq int64              `bson:"seq" json:"seq"`

	StaffID primitive.ObjectID `bson:"staff_id" json:"staff_id"`

	Date    string `bson:"date" json:"date"`
	TimeIn  string `bson:"time_in,omitempty" json:"time_in,omitempty"`
	TimeOut string `bson:"time_out,omitempty" json:"time_out,omitempty"`
	DueDate string `bson:"due_date,omitempty" json:"due_date,omitempty"`

	Division string `bson:"division,omitempty" json:"division,omitempty"`
	District string `bson:"district,omitempty" json:"district,omitempty"`
	Area     string `bson:"area,omitempty" json:"area,omitempty"`
	Branch   string `bson:"branch,omitempty" json:"branch,omitempty"`

	Purpose         string `bson:"purpose,omitempty" json:"purpose,omitempty"`
	TransportMode   string `bson:"transport_mode,omitempty" json:"transport_mode,omitempty"`
	Accomplishments string `bson:"accomplishments,omitempty" json:"accomplishments,omitempty"`

	Status            string              `bson:"status" json:"status"`
	SupervisorRemarks string              `bson:"supervisor_remarks,omitempty" json:"supervisor_remarks,omitempty"`
	ApprovedBy        *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`

	// AssignedSupervisorID transitions from nil to a value at most once via
	// claim; administrator assignment may overwrite it.
	AssignedSupervisorID *primitive.ObjectID `bson:"assigned_supervisor_id,omitempty" json:"assigned_supervisor_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
