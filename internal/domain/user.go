package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleRegular Role = "regular"
)

// Valid reports whether the role is a recognized value.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleRegular:
		return true
	}
	return false
}

// IsOperator reports whether the role may work tickets.
func (r Role) IsOperator() bool {
	return r == RoleAdmin || r == RoleStaff
}

// Department is the fixed tag partitioning tickets and staff specialization.
type Department string

const (
	DepartmentTechnicalSupport Department = "technical_support"
	DepartmentInfrastructure   Department = "infrastructure"
	DepartmentDevelopment      Department = "development"
)

// Departments lists every recognized department tag.
func Departments() []Department {
	return []Department{DepartmentTechnicalSupport, DepartmentInfrastructure, DepartmentDevelopment}
}

// Valid reports whether the department is a recognized value.
func (d Department) Valid() bool {
	switch d {
	case DepartmentTechnicalSupport, DepartmentInfrastructure, DepartmentDevelopment:
		return true
	}
	return false
}

// Label returns the human-readable department name.
func (d Department) Label() string {
	switch d {
	case DepartmentTechnicalSupport:
		return "Technical Support"
	case DepartmentInfrastructure:
		return "Infrastructure"
	case DepartmentDevelopment:
		return "Development"
	}
	return string(d)
}

// User is an account in the helpdesk. Accounts are unusable until an
// admin admits them; the very first admin is admitted automatically.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Department   *Department
	Admitted     bool
	ProfilePhoto *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name for display and mail templates.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// WorksDepartment reports whether the user covers the given category.
// Admins cover every category.
func (u *User) WorksDepartment(d Department) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.Role == RoleStaff && u.Department != nil && *u.Department == d
}
