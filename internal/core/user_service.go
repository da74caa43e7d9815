package core

import (
	"context"
	"fmt"
	"log"

	"devcore.com/ai-assistant-backend/internal/store"
)

type UserService struct {
	dbStore *store.SQLiteStore
}

func NewUserService(db *store.SQLiteStore) *UserService {
	return &UserService{dbStore: db}
}

func (s *UserService) Register(ctx context.Context, name string, method store.ContactMethod, contactInfo string) (*store.User, error) {
	if !method.Valid() {
		return nil, invalid("contact_method", fmt.Sprintf("%q is not a supported contact method", method))
	}

	user, err := s.dbStore.CreateUser(ctx, name, method, contactInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to create user in DB: %w", err)
	}
	log.Printf("[USER] registered user_id=%d contact_method=%s", user.ID, user.ContactMethod)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*store.User, error) {
	user, err := s.dbStore.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ContactMethods() []string {
	methods := make([]string, 0, len(store.ContactMethods))
	for _, m := range store.ContactMethods {
		methods = append(methods, string(m))
	}
	return methods
}
