// Package microsite holds the branded landing page model, slug derivation
// and media attachment rules.
package microsite

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Type values.
const (
	TypeConsumer = "consumer"
	TypeBusiness = "business"
)

// SocialLinks are the per-network profile URLs shown in the footer.
type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

func (s SocialLinks) each(fn func(name, value string)) {
	fn("facebook", s.Facebook)
	fn("twitter", s.Twitter)
	fn("linkedin", s.LinkedIn)
	fn("instagram", s.Instagram)
	fn("youtube", s.YouTube)
}

// Microsite is a tenant landing page.
type Microsite struct {
	ID                    int64       `json:"id"`
	Name                  string      `json:"name"`
	Slug                  string      `json:"slug"`
	Type                  string      `json:"type"`
	Link                  string      `json:"link"`
	Banner                string      `json:"banner"`
	Logo                  string      `json:"logo"`
	AboutDesc             string      `json:"aboutDesc"`
	FooterDesc            string      `json:"footerDesc"`
	SocialLinks           SocialLinks `json:"socialLinks"`
	DigitalCardOrderLink  string      `json:"digitalCardOrderLink"`
	PhysicalCardOrderLink string      `json:"physicalCardOrderLink"`
	CommunityLink         string      `json:"communityLink"`
	MapLink               string      `json:"mapLink"`
	MarketingImgs         []string    `json:"marketingImgs"`
	MarketingVids         []string    `json:"marketingVids"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// ApplyDefaults sets the type and replaces nil lists so they serialise as [].
func (m *Microsite) ApplyDefaults() {
	if m.Type == "" {
		m.Type = TypeConsumer
	}
	if m.MarketingImgs == nil {
		m.MarketingImgs = []string{}
	}
	if m.MarketingVids == nil {
		m.MarketingVids = []string{}
	}
}

// Normalize trims text fields.
func (m *Microsite) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Slug = strings.TrimSpace(m.Slug)
	m.Type = strings.ToLower(strings.TrimSpace(m.Type))
	m.Link = strings.TrimSpace(m.Link)
	m.Banner = strings.TrimSpace(m.Banner)
	m.Logo = strings.TrimSpace(m.Logo)
	m.AboutDesc = strings.TrimSpace(m.AboutDesc)
	m.FooterDesc = strings.TrimSpace(m.FooterDesc)
	m.DigitalCardOrderLink = strings.TrimSpace(m.DigitalCardOrderLink)
	m.PhysicalCardOrderLink = strings.TrimSpace(m.PhysicalCardOrderLink)
	m.CommunityLink = strings.TrimSpace(m.CommunityLink)
	m.MapLink = strings.TrimSpace(m.MapLink)
}

// Validate returns every field failure at once.
func (m Microsite) Validate() error {
	var result *multierror.Error
	if m.Name == "" {
		result = multierror.Append(result, fmt.Errorf("name is required"))
	}
	if m.Link == "" {
		result = multierror.Append(result, fmt.Errorf("link is required"))
	} else if !validURL(m.Link) {
		result = multierror.Append(result, fmt.Errorf("link must be an absolute http(s) URL"))
	}
	if m.Type != TypeConsumer && m.Type != TypeBusiness {
		result = multierror.Append(result, fmt.Errorf("type must be consumer or business"))
	}
	optional := map[string]string{
		"digitalCardOrderLink":  m.DigitalCardOrderLink,
		"physicalCardOrderLink": m.PhysicalCardOrderLink,
		"communityLink":         m.CommunityLink,
		"mapLink":               m.MapLink,
	}
	for _, name := range []string{"digitalCardOrderLink", "physicalCardOrderLink", "communityLink", "mapLink"} {
		if v := optional[name]; v != "" && !validURL(v) {
			result = multierror.Append(result, fmt.Errorf("%s must be an absolute http(s) URL", name))
		}
	}
	m.SocialLinks.each(func(name, value string) {
		if value != "" && !validURL(value) {
			result = multierror.Append(result, fmt.Errorf("socialLinks.%s must be an absolute http(s) URL", name))
		}
	})
	return result.ErrorOrNil()
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Clone returns a deep copy.
func (m Microsite) Clone() Microsite {
	out := m
	out.MarketingImgs = append([]string(nil), m.MarketingImgs...)
	out.MarketingVids = append([]string(nil), m.MarketingVids...)
	out.ApplyDefaults()
	return out
}
