package mongo_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/warp/shift-payroll/records"
	mongostore "github.com/warp/shift-payroll/store/mongo"
	"github.com/warp/shift-payroll/store/storetest"
)

// Set TEST_MONGO_URI to run these against a live server. Each subtest gets a
// throwaway database.
func TestMongoStore_Conformance(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	storetest.Run(t, func(t *testing.T) records.Store {
		db := client.Database("payroll_test_" + uuid.NewString()[:8])
		t.Cleanup(func() { _ = db.Drop(context.Background()) })

		s := mongostore.NewWithDatabase(db)
		require.NoError(t, s.EnsureIndexes(ctx))
		return s
	})
}
