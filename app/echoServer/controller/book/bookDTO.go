package book

import "github.com/Shivamsingh4838/bookswap/model"

// CreateBookReq is accepted as JSON or as multipart/urlencoded form fields.
type CreateBookReq struct {
	Title       string `json:"title" form:"title" validate:"required"`
	Author      string `json:"author" form:"author" validate:"required"`
	Condition   string `json:"condition" form:"condition" validate:"required,oneof=Excellent Good Fair Poor"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
}

func (r CreateBookReq) fields() model.BookFields {
	return model.BookFields{
		Title:       r.Title,
		Author:      r.Author,
		Condition:   model.BookCondition(r.Condition),
		Description: r.Description,
		Category:    r.Category,
	}
}

// UpdateBookReq is a partial update; absent fields stay unchanged.
type UpdateBookReq struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Condition   *string `json:"condition"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

func (r UpdateBookReq) patch() model.BookPatch {
	p := model.BookPatch{
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		Category:    r.Category,
	}
	if r.Condition != nil {
		c := model.BookCondition(*r.Condition)
		p.Condition = &c
	}
	return p
}
