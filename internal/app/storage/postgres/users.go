package postgres

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/sbmwhylt/wlt-team-space/internal/app/domain/user"
	"github.com/sbmwhylt/wlt-team-space/internal/app/storage"
)

var userColumns = []string{
	"id", "first_name", "last_name", "user_name", "gender", "birth_date", "email",
	"password_hash", "role", "status", "avatar", "created_at", "updated_at",
}

func returningUser() string {
	return "RETURNING " + strings.Join(userColumns, ", ")
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := s.now()
	q := s.sb.Insert("users").
		Columns("first_name", "last_name", "user_name", "gender", "birth_date", "email",
			"password_hash", "role", "status", "avatar", "created_at", "updated_at").
		Values(u.FirstName, u.LastName, u.UserName, u.Gender, u.BirthDate, u.Email,
			u.PasswordHash, u.Role, u.Status, u.Avatar, now, now).
		Suffix(returningUser())

	var out user.User
	if err := s.get(ctx, &out, q); err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	q := s.sb.Update("users").
		SetMap(map[string]interface{}{
			"first_name":    u.FirstName,
			"last_name":     u.LastName,
			"user_name":     u.UserName,
			"gender":        u.Gender,
			"birth_date":    u.BirthDate,
			"email":         u.Email,
			"password_hash": u.PasswordHash,
			"role":          u.Role,
			"status":        u.Status,
			"avatar":        u.Avatar,
			"updated_at":    s.now(),
		}).
		Where(sq.Eq{"id": u.ID}).
		Suffix(returningUser())

	var out user.User
	if err := s.get(ctx, &out, q); err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.getUserWhere(ctx, sq.Expr("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) GetUserByUserName(ctx context.Context, userName string) (user.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"user_name": userName})
}

func (s *Store) getUserWhere(ctx context.Context, pred sq.Sqlizer) (user.User, error) {
	var out user.User
	if err := s.get(ctx, &out, s.sb.Select(userColumns...).From("users").Where(pred)); err != nil {
		return user.User{}, err
	}
	return out, nil
}

func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter) ([]user.User, error) {
	q := s.sb.Select(userColumns...).From("users").OrderBy("id")
	if filter.Role != "" {
		q = q.Where(sq.Eq{"role": filter.Role})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if strings.TrimSpace(filter.Search) != "" {
		q = q.Where(searchExpr(filter.Search, "first_name", "last_name", "user_name", "email"))
	}
	q = applyPage(q, filter.Page)

	out := []user.User{}
	if err := s.selectAll(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", id)
}

type userCountRow struct {
	Role   string `db:"role"`
	Status string `db:"status"`
	Count  int    `db:"count"`
}

func (s *Store) CountUsers(ctx context.Context) (storage.UserCounts, error) {
	q := s.sb.Select("role", "status", "count(*) AS count").From("users").GroupBy("role", "status")

	var rows []userCountRow
	if err := s.selectAll(ctx, &rows, q); err != nil {
		return storage.UserCounts{}, err
	}
	counts := storage.UserCounts{ByRole: make(map[string]int)}
	for _, r := range rows {
		counts.Total += r.Count
		counts.ByRole[r.Role] += r.Count
		if r.Status == user.StatusActive {
			counts.Active += r.Count
		}
	}
	return counts, nil
}
