package microsite

// Patch is a partial update. Nil fields are left untouched; a non-nil Slug
// requests a slug change.
type Patch struct {
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

// Apply copies set fields onto m. The slug is copied verbatim; the service
// re-slugifies and checks it.
func (p Patch) Apply(m *Microsite) {
	setString(&m.Name, p.Name)
	setString(&m.Slug, p.Slug)
	setString(&m.Type, p.Type)
	setString(&m.Link, p.Link)
	setString(&m.Banner, p.Banner)
	setString(&m.Logo, p.Logo)
	setString(&m.AboutDesc, p.AboutDesc)
	setString(&m.FooterDesc, p.FooterDesc)
	setString(&m.DigitalCardOrderLink, p.DigitalCardOrderLink)
	setString(&m.PhysicalCardOrderLink, p.PhysicalCardOrderLink)
	setString(&m.CommunityLink, p.CommunityLink)
	setString(&m.MapLink, p.MapLink)
	if p.SocialLinks != nil {
		m.SocialLinks = *p.SocialLinks
	}
	if p.MarketingImgs != nil {
		m.MarketingImgs = append([]string{}, (*p.MarketingImgs)...)
	}
	if p.MarketingVids != nil {
		m.MarketingVids = append([]string{}, (*p.MarketingVids)...)
	}
	m.Normalize()
	m.ApplyDefaults()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
