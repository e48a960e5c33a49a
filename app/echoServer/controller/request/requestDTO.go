package request

type CreateRequestReq struct {
	BookID  int64  `json:"book_id" validate:"required,gt=0"`
	Message string `json:"message"`
}

type RespondReq struct {
	Status          string `json:"status"`
	ResponseMessage string `json:"response_message"`
}
