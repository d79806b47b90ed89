package dto

// UpdateUserRequest is the admin account update payload. Absent fields
// are left untouched.
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
	Admitted   *bool   `json:"admitted,omitempty"`
}
