package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Transactor runs functions inside a multi-document transaction.
// Multi-document transactions need a replica set or sharded cluster.
type Transactor struct {
	client *mongo.Client
}

func NewTransactor(db *mongo.Database) *Transactor {
	return &Transactor{client: db.Client()}
}

// WithTransaction commits when fn returns nil and aborts otherwise. Repositories must be
// called with the ctx handed to fn so their writes join the session.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}
