// model/book.go
package model

import "time"

type BookCondition string

const (
	ConditionExcellent BookCondition = "Excellent"
	ConditionGood      BookCondition = "Good"
	ConditionFair      BookCondition = "Fair"
	ConditionPoor      BookCondition = "Poor"
)

type Book struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Condition   BookCondition `json:"condition"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Image       string        `json:"image"`
	OwnerID     int64         `json:"owner_id"`
	IsAvailable bool          `json:"is_available"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Fields returns the owner-editable part of b.
func (b Book) Fields() BookFields {
	return BookFields{
		Title:       b.Title,
		Author:      b.Author,
		Condition:   b.Condition,
		Description: b.Description,
		Category:    b.Category,
		Image:       b.Image,
	}
}

// BookView is a Book with its owner resolved to display data.
type BookView struct {
	Book
	Owner UserSummary `json:"owner"`
}

// BookFields carries the owner-editable fields on create.
type BookFields struct {
	Title       string        `validate:"required"`
	Author      string        `validate:"required"`
	Condition   BookCondition `validate:"oneof=Excellent Good Fair Poor"`
	Description string
	Category    string
	Image       string
}

// BookPatch carries a partial update; nil means keep the stored value.
type BookPatch struct {
	Title       *string
	Author      *string
	Condition   *BookCondition
	Description *string
	Category    *string
	Image       *string
}
