package domain

type Role string

const (
	RoleOwner       Role = "owner"
	RoleSalesperson Role = "salesperson"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) IsOwner() bool { return u.Role == RoleOwner }

// Tenant is the business account every record belongs to.
type Tenant struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// AuthResponse is what /auth/login and /auth/register return.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"` // seconds
	User         User   `json:"user"`
	Tenant       Tenant `json:"tenant"`
}

// RefreshResponse is what /auth/refresh returns.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone,omitempty"`
}
