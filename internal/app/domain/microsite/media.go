package microsite

import "fmt"

// MediaField names the microsite attribute an upload is attached to.
type MediaField string

const (
	MediaBanner        MediaField = "banner"
	MediaLogo          MediaField = "logo"
	MediaMarketingImgs MediaField = "marketingImgs"
	MediaMarketingVids MediaField = "marketingVids"
)

// ParseMediaField validates a field name coming from a request.
func ParseMediaField(s string) (MediaField, error) {
	switch f := MediaField(s); f {
	case MediaBanner, MediaLogo, MediaMarketingImgs, MediaMarketingVids:
		return f, nil
	case "":
		return MediaMarketingImgs, nil
	default:
		return "", fmt.Errorf("unknown media field %q", s)
	}
}

// Multiple reports whether the field holds a list.
func (f MediaField) Multiple() bool {
	return f == MediaMarketingImgs || f == MediaMarketingVids
}

// AcceptsVideo reports whether the field stores video URLs.
func (f MediaField) AcceptsVideo() bool {
	return f == MediaMarketingVids
}

// AttachMedia records url on the field. Single-valued fields are replaced,
// list fields are appended to.
func (m *Microsite) AttachMedia(field MediaField, url string) error {
	switch field {
	case MediaBanner:
		m.Banner = url
	case MediaLogo:
		m.Logo = url
	case MediaMarketingImgs:
		m.MarketingImgs = append(m.MarketingImgs, url)
	case MediaMarketingVids:
		m.MarketingVids = append(m.MarketingVids, url)
	default:
		return fmt.Errorf("unknown media field %q", field)
	}
	return nil
}
