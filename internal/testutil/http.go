package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/coursebridge/coursebridge/internal/app/system/auth"
	"github.com/coursebridge/coursebridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminIdentity returns a gateway identity with the admin role.
func AdminIdentity() *auth.Identity {
	return &auth.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin, Name: "Test Admin"}
}

// TrainerIdentity returns a gateway identity with the trainer role.
func TrainerIdentity() *auth.Identity {
	return &auth.Identity{ID: primitive.NewObjectID(), Role: models.RoleTrainer, Name: "Test Trainer"}
}

// LearnerIdentity returns a gateway identity with the learner role.
func LearnerIdentity() *auth.Identity {
	return &auth.Identity{ID: primitive.NewObjectID(), Role: models.RoleLearner, Name: "Test Learner"}
}

// IdentityFor returns a gateway identity matching an existing user record.
func IdentityFor(u models.User) *auth.Identity {
	return &auth.Identity{ID: u.ID, Role: u.Role, Name: u.FullName}
}

// NewRequest creates an HTTP request with an identity in context.
func NewRequest(method, target string, u *auth.Identity) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return auth.WithIdentity(req, u)
}

// NewJSONRequest creates an HTTP request carrying a JSON body and an
// identity in context.
func NewJSONRequest(method, target string, u *auth.Identity, body any) *http.Request {
	buf, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return auth.WithIdentity(req, u)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// Envelope decodes the response body as the standard JSON envelope.
func (r *ResponseRecorder) Envelope(t interface{ Fatalf(string, ...any) }) map[string]any {
	var body map[string]any
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	return body
}
