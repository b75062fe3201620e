package order

import (
	"context"
	"errors"
	"time"

	"biteme-be/internal/db"
	"biteme-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const ordersCollection = "orders"

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, o *Order) (string, error)
	FindByOwner(ctx context.Context, userID string) ([]*Order, error)
	FindOne(ctx context.Context, orderID, userID string) (*Order, error)
	UpdateStatus(ctx context.Context, orderID, userID string, from, to Status, at time.Time) (int64, error)
}

// orderDocument carries the store-native key next to the order. The native
// key never leaves this file.
type orderDocument struct {
	ObjectID primitive.ObjectID `bson:"_id,omitempty"`
	Order    `bson:",inline"`
}

func (d *orderDocument) toOrder() *Order {
	o := d.Order
	if o.ID == "" {
		// documents written before application ids existed
		o.ID = d.ObjectID.Hex()
	}
	return &o
}

type repository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRepository(database *mongo.Database, timeout time.Duration) Repository {
	return &repository{
		coll:    database.Collection(ordersCollection),
		timeout: timeout,
	}
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"id": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return db.Classify(err)
}

func (r *repository) Insert(ctx context.Context, o *Order) (string, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, orderDocument{Order: *o})
	if db.IsDuplicateKey(err) {
		return "", ErrOrderExists
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert order",
			zap.String("layer", "repository"),
			zap.String("method", "Insert"),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return "", db.Classify(err)
	}
	return o.ID, nil
}

func (r *repository) FindByOwner(ctx context.Context, userID string) ([]*Order, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, db.Classify(err)
	}
	defer cur.Close(ctx)

	orders := []*Order{}
	for cur.Next(ctx) {
		var doc orderDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, db.Classify(err)
		}
		orders = append(orders, doc.toOrder())
	}
	if err := cur.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return orders, nil
}

// FindOne accepts the application id or the native key in hex form. The
// owner is part of the filter, so a foreign order reads as missing.
func (r *repository) FindOne(ctx context.Context, orderID, userID string) (*Order, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := ownedBy(orderID, userID)

	var doc orderDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return doc.toOrder(), nil
}

// UpdateStatus is conditional on the current status; zero modified means
// another writer got there first or the order is gone.
func (r *repository) UpdateStatus(ctx context.Context, orderID, userID string, from, to Status, at time.Time) (int64, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := ownedBy(orderID, userID)
	filter["status"] = from

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"status": to, "updated_at": at},
	})
	if err != nil {
		return 0, db.Classify(err)
	}
	return res.ModifiedCount, nil
}

func ownedBy(orderID, userID string) bson.M {
	keys := bson.A{bson.M{"id": orderID}}
	if oid, err := primitive.ObjectIDFromHex(orderID); err == nil {
		keys = append(keys, bson.M{"_id": oid})
	}
	return bson.M{"$or": keys, "user_id": userID}
}
