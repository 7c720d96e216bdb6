package entity

import "time"

// User is a company member. The approval engine only reads Role,
// ManagerID and CompanyID; everything else belongs to the account surface.
type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Role              Role       `json:"role"`
	CompanyID         int64      `json:"company_id"`
	ManagerID         *int64     `json:"manager_id,omitempty"`
	IsManagerApprover bool       `json:"is_manager_approver"`
	Status            UserStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
}
