// Package api defines the JSON wire types and error codes shared by the
// stocklive server and client. It is the contract between the two; neither
// side imports the other's internals.
package api

import "time"

// Error codes carried in ErrorResponse. The client maps these back onto its
// typed error taxonomy.
const (
	CodeEmailInUse          = "email_in_use"
	CodeInvalidEmail        = "invalid_email"
	CodeWeakPassword        = "weak_password"
	CodeUserDisabled        = "user_disabled"
	CodeUserNotFound        = "user_not_found"
	CodeWrongPassword       = "wrong_password"
	CodeNotFound            = "not_found"
	CodeUnauthorized        = "unauthorized"
	CodeTokenExpired        = "token_expired"
	CodeRefreshTokenExpired = "refresh_token_expired"
	CodeInternal            = "internal"
)

// TokenQueryParam carries the access token on the websocket watch URL,
// where custom headers are awkward for some clients.
const TokenQueryParam = "token"

// Snapshot message type sent on the watch socket.
const MessageTypeSnapshot = "snapshot"

// Record kinds.
const (
	KindProduct = "product"
	KindStore   = "store"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type Actor struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LogInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	Actor  Actor     `json:"actor"`
	Tokens TokenPair `json:"tokens"`
}

// Record is the wire form of a single inventory record.
type Record struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InsertRequest carries a new record. The server assigns the ID and derives
// the owner from the access token; owner_id in the payload is ignored.
type InsertRequest struct {
	Record Record `json:"record"`
}

type InsertResponse struct {
	ID string `json:"id"`
}

// RecordPatch is a merge patch: nil fields are left untouched.
type RecordPatch struct {
	Kind        *string    `json:"kind,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Stock       *int       `json:"stock,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Description *string    `json:"description,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// SnapshotMessage is pushed on the watch socket: the full set of the
// owner's records at one point in time.
type SnapshotMessage struct {
	Type    string   `json:"type"`
	Records []Record `json:"records"`
}
