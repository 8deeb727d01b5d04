// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
//
// Identity and authentication live in the external gateway; this service
// only reads the users collection to resolve roles (e.g. confirming that
// an enrollment target is actually a learner).
const (
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
	RoleLearner = "learner"
)

// User is the directory record for a person known to the platform.
type User struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	FullName string             `bson:"full_name" json:"full_name"`
	Email    string             `bson:"email" json:"email"`
	EmailCI  string             `bson:"email_ci" json:"-"`  // lowercase, diacritics-stripped
	Role     string             `bson:"role" json:"role"`   // admin | trainer | learner
	Status   string             `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
