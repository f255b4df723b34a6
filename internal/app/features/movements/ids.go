package movements

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type idsPayload struct {
	IDs []string `json:"ids"`
}

func (p *idsPayload) objectIDs() ([]primitive.ObjectID, error) {
	if len(p.IDs) == 0 {
		return nil, fmt.Errorf("empty id list")
	}
	out := make([]primitive.ObjectID, 0, len(p.IDs))
	for _, s := range p.IDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
