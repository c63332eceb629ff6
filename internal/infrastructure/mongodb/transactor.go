package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prodtrack-platform/tracking-service/pkg/mongodb"
)

// Transactor runs application-level units of work inside a MongoDB
// transaction. The session context is handed to the callback as a plain
// context.Context, so repository calls made through it join the transaction.
type Transactor struct {
	client *mongodb.Client
}

// NewTransactor creates a new Transactor
func NewTransactor(client *mongodb.Client) *Transactor {
	return &Transactor{client: client}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
