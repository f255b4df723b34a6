// internal/app/features/kb/handler.go
package kb

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	kbstore "github.com/fieldops/movelog/internal/app/store/kb"
	"github.com/fieldops/movelog/internal/app/system/auth"
	"github.com/fieldops/movelog/internal/app/system/httpjson"
	"github.com/fieldops/movelog/internal/app/system/sanitize"
	"github.com/fieldops/movelog/internal/app/system/timeouts"
	"github.com/fieldops/movelog/internal/domain/models"
)

// Handler serves the knowledge base. Entries are write-once; a new
// version is a new entry.
type Handler struct {
	Log *zap.Logger
	KB  *kbstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, KB: kbstore.New(db)}
}

// ServeList returns every entry, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.KB.List(ctx)
	if err != nil {
		h.Log.Error("kb list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to load knowledge base")
		return
	}
	if items == nil {
		items = []models.KnowledgeBaseEntry{}
	}
	httpjson.OK(w, items)
}

type createPayload struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Version  string `json:"version"`
}

func validType(t string) bool {
	switch t {
	case models.KBTypePDF, models.KBTypeWord, models.KBTypeExcel, models.KBTypeLink:
		return true
	}
	return false
}

// HandleCreate adds an entry authored by the signed-in principal.
// Content is sanitized before it is stored; link targets survive the
// strict policy as plain text.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	uid, err := su.ObjectID()
	if err != nil {
		httpjson.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var p createPayload
	if err := httpjson.Decode(r, &p); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Title == "" || !validType(p.Type) {
		httpjson.Error(w, http.StatusBadRequest, "title and a valid type are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.KB.Create(ctx, models.KnowledgeBaseEntry{
		Title:     sanitize.Text(p.Title),
		Category:  sanitize.Text(p.Category),
		Type:      p.Type,
		Content:   sanitize.Rich(p.Content),
		Version:   p.Version,
		CreatedBy: uid,
	})
	if err != nil {
		h.Log.Error("kb create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to create entry")
		return
	}
	httpjson.Success(w, map[string]any{"id": created.ID.Hex()})
}
