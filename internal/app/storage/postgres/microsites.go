package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx/types"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/microsite"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
)

var micrositeColumns = []string{
	"id", "name", "slug", "type", "link", "banner", "logo", "about_desc", "footer_desc",
	"social_links", "digital_card_order_link", "physical_card_order_link", "community_link",
	"map_link", "marketing_imgs", "marketing_vids", "created_at", "updated_at",
}

// micrositeRow is the table shape; the jsonb columns stay raw until converted.
type micrositeRow struct {
	ID                    int64          `db:"id"`
	Name                  string         `db:"name"`
	Slug                  string         `db:"slug"`
	Type                  string         `db:"type"`
	Link                  string         `db:"link"`
	Banner                string         `db:"banner"`
	Logo                  string         `db:"logo"`
	AboutDesc             string         `db:"about_desc"`
	FooterDesc            string         `db:"footer_desc"`
	SocialLinks           types.JSONText `db:"social_links"`
	DigitalCardOrderLink  string         `db:"digital_card_order_link"`
	PhysicalCardOrderLink string         `db:"physical_card_order_link"`
	CommunityLink         string         `db:"community_link"`
	MapLink               string         `db:"map_link"`
	MarketingImgs         types.JSONText `db:"marketing_imgs"`
	MarketingVids         types.JSONText `db:"marketing_vids"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

func (r micrositeRow) toDomain() (microsite.Microsite, error) {
	m := microsite.Microsite{
		ID:                    r.ID,
		Name:                  r.Name,
		Slug:                  r.Slug,
		Type:                  r.Type,
		Link:                  r.Link,
		Banner:                r.Banner,
		Logo:                  r.Logo,
		AboutDesc:             r.AboutDesc,
		FooterDesc:            r.FooterDesc,
		DigitalCardOrderLink:  r.DigitalCardOrderLink,
		PhysicalCardOrderLink: r.PhysicalCardOrderLink,
		CommunityLink:         r.CommunityLink,
		MapLink:               r.MapLink,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	if err := unmarshalJSON(r.SocialLinks, &m.SocialLinks); err != nil {
		return microsite.Microsite{}, fmt.Errorf("decode social_links for microsite %d: %w", r.ID, err)
	}
	if err := unmarshalJSON(r.MarketingImgs, &m.MarketingImgs); err != nil {
		return microsite.Microsite{}, fmt.Errorf("decode marketing_imgs for microsite %d: %w", r.ID, err)
	}
	if err := unmarshalJSON(r.MarketingVids, &m.MarketingVids); err != nil {
		return microsite.Microsite{}, fmt.Errorf("decode marketing_vids for microsite %d: %w", r.ID, err)
	}
	m.ApplyDefaults()
	return m, nil
}

func unmarshalJSON(raw types.JSONText, dest interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw.Unmarshal(dest)
}

func mustJSON(v interface{}) (types.JSONText, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(data), nil
}

func micrositeValues(m microsite.Microsite) (map[string]interface{}, error) {
	m.ApplyDefaults()
	social, err := mustJSON(m.SocialLinks)
	if err != nil {
		return nil, err
	}
	imgs, err := mustJSON(m.MarketingImgs)
	if err != nil {
		return nil, err
	}
	vids, err := mustJSON(m.MarketingVids)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"name":                     m.Name,
		"slug":                     m.Slug,
		"type":                     m.Type,
		"link":                     m.Link,
		"banner":                   m.Banner,
		"logo":                     m.Logo,
		"about_desc":               m.AboutDesc,
		"footer_desc":              m.FooterDesc,
		"social_links":             social,
		"digital_card_order_link":  m.DigitalCardOrderLink,
		"physical_card_order_link": m.PhysicalCardOrderLink,
		"community_link":           m.CommunityLink,
		"map_link":                 m.MapLink,
		"marketing_imgs":           imgs,
		"marketing_vids":           vids,
	}, nil
}

func returningMicrosite() string {
	return "RETURNING " + strings.Join(micrositeColumns, ", ")
}

func (s *Store) CreateMicrosite(ctx context.Context, m microsite.Microsite) (microsite.Microsite, error) {
	values, err := micrositeValues(m)
	if err != nil {
		return microsite.Microsite{}, err
	}
	now := s.now()
	values["created_at"] = now
	values["updated_at"] = now

	q := s.sb.Insert("microsites").SetMap(values).Suffix(returningMicrosite())
	return s.getMicrosite(ctx, q)
}

func (s *Store) UpdateMicrosite(ctx context.Context, m microsite.Microsite) (microsite.Microsite, error) {
	values, err := micrositeValues(m)
	if err != nil {
		return microsite.Microsite{}, err
	}
	values["updated_at"] = s.now()

	q := s.sb.Update("microsites").SetMap(values).Where(sq.Eq{"id": m.ID}).Suffix(returningMicrosite())
	return s.getMicrosite(ctx, q)
}

func (s *Store) GetMicrosite(ctx context.Context, id int64) (microsite.Microsite, error) {
	return s.getMicrosite(ctx, s.selectMicrosites().Where(sq.Eq{"id": id}))
}

func (s *Store) GetMicrositeBySlug(ctx context.Context, slug string) (microsite.Microsite, error) {
	return s.getMicrosite(ctx, s.selectMicrosites().Where(sq.Eq{"slug": slug}))
}

func (s *Store) GetMicrositeByName(ctx context.Context, name string) (microsite.Microsite, error) {
	return s.getMicrosite(ctx, s.selectMicrosites().Where(sq.Eq{"name": name}).OrderBy("id").Limit(1))
}

func (s *Store) selectMicrosites() sq.SelectBuilder {
	return s.sb.Select(micrositeColumns...).From("microsites")
}

func (s *Store) getMicrosite(ctx context.Context, q sq.Sqlizer) (microsite.Microsite, error) {
	var row micrositeRow
	if err := s.get(ctx, &row, q); err != nil {
		return microsite.Microsite{}, err
	}
	return row.toDomain()
}

func (s *Store) ListMicrosites(ctx context.Context, filter storage.MicrositeFilter) ([]microsite.Microsite, error) {
	q := s.selectMicrosites().OrderBy("id")
	if filter.Type != "" {
		q = q.Where(sq.Eq{"type": filter.Type})
	}
	if strings.TrimSpace(filter.Search) != "" {
		q = q.Where(searchExpr(filter.Search, "name", "slug", "link"))
	}
	q = applyPage(q, filter.Page)

	var rows []micrositeRow
	if err := s.selectAll(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make([]microsite.Microsite, 0, len(rows))
	for _, r := range rows {
		m, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) DeleteMicrosite(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "microsites", id)
}

func (s *Store) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	q := s.sb.Select("count(*)").From("microsites").Where(sq.Eq{"slug": slug}).Where(sq.NotEq{"id": excludeID})

	var n int
	if err := s.get(ctx, &n, q); err != nil {
		return false, err
	}
	return n > 0, nil
}

type typeCountRow struct {
	Type  string `db:"type"`
	Count int    `db:"count"`
}

func (s *Store) CountMicrosites(ctx context.Context) (map[string]int, error) {
	q := s.sb.Select("type", "count(*) AS count").From("microsites").GroupBy("type")

	var rows []typeCountRow
	if err := s.selectAll(ctx, &rows, q); err != nil {
		return nil, err
	}
	counts := map[string]int{microsite.TypeConsumer: 0, microsite.TypeBusiness: 0}
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}
