// model/request.go
package model

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestAccepted || s == RequestDeclined
}

// Request is an exchange request. OwnerID is copied from the book when the
// request is created and never re-derived.
type Request struct {
	ID              int64         `json:"id"`
	BookID          int64         `json:"book_id"`
	RequesterID     int64         `json:"requester_id"`
	OwnerID         int64         `json:"owner_id"`
	Status          RequestStatus `json:"status"`
	Message         string        `json:"message"`
	ResponseMessage string        `json:"response_message"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type RequestView struct {
	ID              int64         `json:"id"`
	Book            BookView      `json:"book"`
	Requester       UserSummary   `json:"requester"`
	Owner           UserSummary   `json:"owner"`
	Status          RequestStatus `json:"status"`
	Message         string        `json:"message"`
	ResponseMessage string        `json:"response_message"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
