package catalog

import (
	"context"
	"fmt"

	"github.com/bece-prep/platform/internal/docstore"
	"golang.org/x/text/language"
)

func userFromDoc(doc docstore.Document) (User, error) {
	var u User
	if err := decodeDoc(doc, &u); err != nil {
		return User{}, err
	}
	u.ID = doc.ID
	u.CreatedAt = isoTime(doc.CreatedAt)
	u.UpdatedAt = isoTime(doc.UpdatedAt)
	return u, nil
}

// normalizeUser fills role and preference defaults and canonicalizes the
// preference language tag ("EN-us" becomes "en-US"; garbage falls back to
// English).
func normalizeUser(u User) User {
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.Preferences == (Preferences{}) {
		u.Preferences = DefaultPreferences()
	}
	tag, err := language.Parse(u.Preferences.Language)
	if err != nil {
		tag = language.English
	}
	u.Preferences.Language = tag.String()
	return u
}

// ListUsers returns all user profiles in store order.
func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	docs, err := r.store.List(ctx, ColUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]User, 0, len(docs))
	for _, doc := range docs {
		u, err := userFromDoc(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// GetUser returns a user profile by identity id, or nil when absent.
func (r *Repo) GetUser(ctx context.Context, id string) (*User, error) {
	doc, err := r.store.Get(ctx, ColUsers, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	u, err := userFromDoc(*doc)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByEmail returns the first user profile with the given email, or nil.
func (r *Repo) UserByEmail(ctx context.Context, email string) (*User, error) {
	docs, err := r.store.Query(ctx, ColUsers, "email", email)
	if err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	u, err := userFromDoc(docs[0])
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UsersByRole returns all user profiles with the given role.
func (r *Repo) UsersByRole(ctx context.Context, role Role) ([]User, error) {
	docs, err := r.store.Query(ctx, ColUsers, "role", string(role))
	if err != nil {
		return nil, fmt.Errorf("users by role %s: %w", role, err)
	}
	users := make([]User, 0, len(docs))
	for _, doc := range docs {
		u, err := userFromDoc(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// PutUser writes a user profile under its identity id, creating or
// replacing it.
func (r *Repo) PutUser(ctx context.Context, u User) error {
	if u.ID == "" {
		return fmt.Errorf("put user: id is required")
	}
	fields, err := toFields(normalizeUser(u))
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, ColUsers, u.ID, fields); err != nil {
		return fmt.Errorf("put user %s: %w", u.ID, err)
	}
	return nil
}

// PutAdminIf writes an admin user profile only when no admin profile
// exists yet. Returns docstore.ErrConflict otherwise. The check is atomic
// at the store, not a read-then-write scan.
func (r *Repo) PutAdminIf(ctx context.Context, u User) error {
	u.Role = RoleAdmin
	if u.ID == "" {
		return fmt.Errorf("put admin: id is required")
	}
	fields, err := toFields(normalizeUser(u))
	if err != nil {
		return err
	}
	if _, err := r.store.PutIf(ctx, ColUsers, u.ID, fields, "role", string(RoleAdmin)); err != nil {
		return fmt.Errorf("put admin %s: %w", u.ID, err)
	}
	return nil
}

// UpdateUser merges the given fields into an existing user profile.
func (r *Repo) UpdateUser(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Update(ctx, ColUsers, id, fields); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser removes a user profile.
func (r *Repo) DeleteUser(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ColUsers, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
