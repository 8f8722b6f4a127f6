package user

import "time"

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	FirstName *string    `json:"firstName,omitempty"`
	LastName  *string    `json:"lastName,omitempty"`
	UserName  *string    `json:"userName,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Password  *string    `json:"password,omitempty"`
	Role      *string    `json:"role,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Avatar    *string    `json:"avatar,omitempty"`
}

// Apply copies set fields onto u. Password is handled by the caller since it
// needs hashing.
func (p Patch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.UserName != nil {
		u.UserName = *p.UserName
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		u.BirthDate = &bd
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Avatar != nil {
		avatar := *p.Avatar
		u.Avatar = &avatar
	}
	u.Normalize()
}

// ChangesPrivileges reports whether the patch touches role or status.
func (p Patch) ChangesPrivileges() bool {
	return p.Role != nil || p.Status != nil
}

// IsEmpty reports whether no field is set.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}
