package domain

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account. Profile holds every client supplied field
// other than email; it is stored and returned as-is.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	CreatedAt time.Time          `bson:"createdAt"`
	Profile   map[string]any     `bson:",inline"`
}

// MarshalJSON flattens the profile next to the record's own fields.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Profile)+3)
	for k, v := range u.Profile {
		out[k] = v
	}
	if !u.ID.IsZero() {
		out["_id"] = u.ID
	}
	out["email"] = u.Email
	if !u.CreatedAt.IsZero() {
		out["createdAt"] = u.CreatedAt
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any JSON object. Store managed keys (_id, createdAt)
// are discarded.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	email, _ := raw["email"].(string)
	delete(raw, "email")
	delete(raw, "_id")
	delete(raw, "createdAt")

	*u = User{Email: email, Profile: raw}
	return nil
}
