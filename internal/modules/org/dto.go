package org

type CreateOrgRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member"`
}
