package domain

import "context"

// UserRepository defines access to the remote users API
type UserRepository interface {
	List(ctx context.Context) ([]UserRecord, error)
	Get(ctx context.Context, id int) (*UserRecord, error)
	Create(ctx context.Context, rec UserRecord) (*UserRecord, error)
	Update(ctx context.Context, id int, rec UserRecord) (*UserRecord, error)
	Delete(ctx context.Context, id int) error
}
