package microsite

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Default Microsite":      "default-microsite",
		"  Café Crème & Co.  ":   "cafe-creme-co",
		"WLT -- Team // Space!!": "wlt-team-space",
		"Ünïcödé 2025":           "unicode-2025",
		"***":                    "microsite",
		"":                       "microsite",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	slug := Slugify(strings.Repeat("ab ", 60))
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "site", WithSuffix("site", 1))
	assert.Equal(t, "site-2", WithSuffix("site", 2))
	long := strings.Repeat("a", MaxSlugLength)
	assert.Len(t, WithSuffix(long, 12), MaxSlugLength)
}

func TestValidate(t *testing.T) {
	m := Microsite{Name: "Acme", Link: "https://acme.example"}
	m.ApplyDefaults()
	require.NoError(t, m.Validate())

	bad := Microsite{Type: "retail", Link: "acme", MapLink: "nope", SocialLinks: SocialLinks{Twitter: "ftp://x"}}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"name is required", "link must be", "type must be", "mapLink must be", "socialLinks.twitter"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestApplyDefaults(t *testing.T) {
	var m Microsite
	m.ApplyDefaults()
	assert.Equal(t, TypeConsumer, m.Type)
	assert.NotNil(t, m.MarketingImgs)
	assert.NotNil(t, m.MarketingVids)
}

func TestPatchApply(t *testing.T) {
	m := Microsite{Name: "Acme", Slug: "acme", Link: "https://acme.example", MarketingImgs: []string{"a"}}
	name := " Acme Corp "
	imgs := []string{"x", "y"}
	Patch{Name: &name, MarketingImgs: &imgs}.Apply(&m)

	assert.Equal(t, "Acme Corp", m.Name)
	assert.Equal(t, "acme", m.Slug)
	if diff := cmp.Diff([]string{"x", "y"}, m.MarketingImgs); diff != "" {
		t.Fatalf("marketingImgs mismatch (-want +got):\n%s", diff)
	}
	imgs[0] = "mutated"
	assert.Equal(t, "x", m.MarketingImgs[0])
}

func TestAttachMedia(t *testing.T) {
	m := Microsite{Banner: "old"}
	require.NoError(t, m.AttachMedia(MediaBanner, "new"))
	require.NoError(t, m.AttachMedia(MediaMarketingImgs, "i1"))
	require.NoError(t, m.AttachMedia(MediaMarketingImgs, "i2"))
	require.Error(t, m.AttachMedia("poster", "x"))

	assert.Equal(t, "new", m.Banner)
	assert.Equal(t, []string{"i1", "i2"}, m.MarketingImgs)
}

func TestParseMediaField(t *testing.T) {
	f, err := ParseMediaField("")
	require.NoError(t, err)
	assert.Equal(t, MediaMarketingImgs, f)
	assert.True(t, f.Multiple())

	_, err = ParseMediaField("poster")
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	m := Microsite{MarketingImgs: []string{"a"}}
	c := m.Clone()
	c.MarketingImgs[0] = "b"
	assert.Equal(t, "a", m.MarketingImgs[0])
}
