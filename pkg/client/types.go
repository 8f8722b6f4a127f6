package client

import "time"

// User is a dashboard account as returned by the API.
type User struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	UserName  string     `json:"userName"`
	Gender    string     `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	Avatar    *string    `json:"avatar,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user may manage other accounts.
func (u User) IsAdmin() bool {
	return u.Role == "admin" || u.Role == "super-admin"
}

// NewUser is the registration payload.
type NewUser struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	UserName  string     `json:"userName"`
	Gender    string     `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      string     `json:"role,omitempty"`
	Status    string     `json:"status,omitempty"`
	Avatar    *string    `json:"avatar,omitempty"`
}

// UserPatch is a partial user update. Nil fields are not sent.
type UserPatch struct {
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

// SocialLinks are the footer profile URLs of a microsite.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// Microsite is a tenant landing page.
type Microsite struct {
	ID                    int64       `json:"id,omitempty"`
	Name                  string      `json:"name"`
	Slug                  string      `json:"slug,omitempty"`
	Type                  string      `json:"type,omitempty"`
	Link                  string      `json:"link"`
	Banner                string      `json:"banner,omitempty"`
	Logo                  string      `json:"logo,omitempty"`
	AboutDesc             string      `json:"aboutDesc,omitempty"`
	FooterDesc            string      `json:"footerDesc,omitempty"`
	SocialLinks           SocialLinks `json:"socialLinks"`
	DigitalCardOrderLink  string      `json:"digitalCardOrderLink,omitempty"`
	PhysicalCardOrderLink string      `json:"physicalCardOrderLink,omitempty"`
	CommunityLink         string      `json:"communityLink,omitempty"`
	MapLink               string      `json:"mapLink,omitempty"`
	MarketingImgs         []string    `json:"marketingImgs,omitempty"`
	MarketingVids         []string    `json:"marketingVids,omitempty"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// MicrositePatch is a partial microsite update.
type MicrositePatch struct {
	Name                  *string      `json:"name,omitempty"`
	Slug                  *string      `json:"slug,omitempty"`
	Type                  *string      `json:"type,omitempty"`
	Link                  *string      `json:"link,omitempty"`
	Banner                *string      `json:"banner,omitempty"`
	Logo                  *string      `json:"logo,omitempty"`
	AboutDesc             *string      `json:"aboutDesc,omitempty"`
	FooterDesc            *string      `json:"footerDesc,omitempty"`
	SocialLinks           *SocialLinks `json:"socialLinks,omitempty"`
	DigitalCardOrderLink  *string      `json:"digitalCardOrderLink,omitempty"`
	PhysicalCardOrderLink *string      `json:"physicalCardOrderLink,omitempty"`
	CommunityLink         *string      `json:"communityLink,omitempty"`
	MapLink               *string      `json:"mapLink,omitempty"`
	MarketingImgs         *[]string    `json:"marketingImgs,omitempty"`
	MarketingVids         *[]string    `json:"marketingVids,omitempty"`
}

// Stats are the dashboard counters.
type Stats struct {
	Users struct {
		Total  int            `json:"total"`
		Active int            `json:"active"`
		ByRole map[string]int `json:"byRole"`
	} `json:"users"`
	Microsites map[string]int `json:"microsites"`
}

// StringPtr is a helper for building patches.
func StringPtr(s string) *string { return &s }
