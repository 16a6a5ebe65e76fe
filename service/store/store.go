// Package store defines the persistence collaborator the hub talks to and
// ships MongoDB and in-memory implementations of it.
package store

import (
	"context"

	chatmodel "PPHub/module/chat/model"
	usermodel "PPHub/module/user/model"
)

// Store is the external data store. Implementations return errs.ErrNotFound
// for absent entities and errs.ErrTransientStore for everything else.
type Store interface {
	FindUser(ctx context.Context, id string) (*usermodel.User, error)
	UpdateUserStatus(ctx context.Context, id, status string) error
	CreateMessage(ctx context.Context, m *chatmodel.Message) (*chatmodel.Message, error)
	CreateGroupMessage(ctx context.Context, m *chatmodel.GroupMessage) (*chatmodel.GroupMessage, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]chatmodel.GroupMember, error)
	FindGroup(ctx context.Context, id string) (*chatmodel.Group, error)
}
