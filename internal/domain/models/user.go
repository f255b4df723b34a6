// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a staff account in the movement journal.
//
// District is an ordered list of district tags; it is stored as a BSON array
// and travels as a JSON array in both directions. PasswordHash is never
// serialized to clients.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IDNumber     string             `bson:"id_number,omitempty" json:"id_number,omitempty"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`

	FullName   string   `bson:"full_name" json:"full_name"`
	Position   string   `bson:"position,omitempty" json:"position,omitempty"`
	Division   string   `bson:"division,omitempty" json:"division,omitempty"`
	District   []string `bson:"district" json:"district"`
	BaseOffice string   `bson:"base_office,omitempty" json:"base_office,omitempty"`

	Role         string              `bson:"role" json:"role"`
	SupervisorID *primitive.ObjectID `bson:"supervisor_id,omitempty" json:"supervisor_id,omitempty"`
	Status       string              `bson:"status" json:"status"`

	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	// Profile attributes.
	Email           string `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber     string `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Location        string `bson:"location,omitempty" json:"location,omitempty"`
	DateOfBirth     string `bson:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Language        string `bson:"language,omitempty" json:"language,omitempty"`
	Locale          string `bson:"locale,omitempty" json:"locale,omitempty"`
	FirstDayOfWeek  string `bson:"first_day_of_week,omitempty" json:"first_day_of_week,omitempty"`
	Website         string `bson:"website,omitempty" json:"website,omitempty"`
	XHandle         string `bson:"x_handle,omitempty" json:"x_handle,omitempty"`
	FediverseHandle string `bson:"fediverse_handle,omitempty" json:"fediverse_handle,omitempty"`
	Organisation    string `bson:"organisation,omitempty" json:"organisation,omitempty"`
	ProfileRole     string `bson:"profile_role,omitempty" json:"profile_role,omitempty"`
	Headline        string `bson:"headline,omitempty" json:"headline,omitempty"`
	About           string `bson:"about,omitempty" json:"about,omitempty"`

	OnlineStatus  string `bson:"online_status" json:"online_status"`
	StatusMessage string `bson:"status_message,omitempty" json:"status_message,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User account statuses.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)
