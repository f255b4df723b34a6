// internal/domain/models/knowledgebase.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Knowledge base entry types.
const (
	KBTypePDF   = "pdf"
	KBTypeWord  = "word"
	KBTypeExcel = "excel"
	KBTypeLink  = "link"
)

// KnowledgeBaseEntry is a reference document shared with field staff.
// Entries are immutable once created; there are no update or delete paths.
type KnowledgeBaseEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	Type      string             `bson:"type" json:"type"`
	Content   string             `bson:"content" json:"content"`
	Version   string             `bson:"version,omitempty" json:"version,omitempty"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
