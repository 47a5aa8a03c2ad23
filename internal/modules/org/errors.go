package org

import "errors"

var (
	ErrOrgNotFound   = errors.New("organization not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyMember = errors.New("user is already a member")
)
