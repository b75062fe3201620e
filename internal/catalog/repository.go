package catalog

import (
	"context"
	"errors"
	"time"

	"biteme-be/internal/db"
	"biteme-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const restaurantsCollection = "restaurants"

type Repository interface {
	EnsureIndexes(ctx context.Context) error

	FindRestaurant(ctx context.Context, id string) (*Restaurant, error)
	FindRestaurantByName(ctx context.Context, name string) (*Restaurant, error)
	FindMenuItem(ctx context.Context, restaurantID, name string) (*MenuItem, error)
	List(ctx context.Context, filter ListFilter) ([]*Restaurant, error)

	CreateRestaurant(ctx context.Context, r *Restaurant) error
	UpdateRestaurant(ctx context.Context, r *Restaurant, expectedVersion int64) error
	DeleteRestaurant(ctx context.Context, id string) error

	AddMenuItem(ctx context.Context, restaurantID string, item MenuItem, actorID string, at time.Time) error
	UpdateMenuItem(ctx context.Context, restaurantID string, item MenuItem, actorID string, at time.Time) error
	RemoveMenuItem(ctx context.Context, restaurantID, itemID, actorID string, at time.Time) error
}

type repository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRepository(database *mongo.Database, timeout time.Duration) Repository {
	return &repository{
		coll:    database.Collection(restaurantsCollection),
		timeout: timeout,
	}
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "cuisine_type", Value: 1}, {Key: "rating", Value: -1}}},
	})
	return db.Classify(err)
}

func (r *repository) FindRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *repository) FindRestaurantByName(ctx context.Context, name string) (*Restaurant, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *repository) findOne(ctx context.Context, filter bson.M) (*Restaurant, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rest Restaurant
	err := r.coll.FindOne(ctx, filter).Decode(&rest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load restaurant",
			zap.String("layer", "repository"),
			zap.Any("filter", filter),
			zap.Error(err),
		)
		return nil, db.Classify(err)
	}
	return &rest, nil
}

// FindMenuItem resolves an item by its display name, the key clients order by.
func (r *repository) FindMenuItem(ctx context.Context, restaurantID, name string) (*MenuItem, error) {
	rest, err := r.FindRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	item, ok := rest.MenuItemByName(name)
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Restaurant, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, listQuery(filter), options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, db.Classify(err)
	}
	defer cur.Close(ctx)

	out := []*Restaurant{}
	for cur.Next(ctx) {
		var rest Restaurant
		if err := cur.Decode(&rest); err != nil {
			return nil, db.Classify(err)
		}
		out = append(out, &rest)
	}
	if err := cur.Err(); err != nil {
		return nil, db.Classify(err)
	}
	return out, nil
}

func listQuery(f ListFilter) bson.M {
	q := bson.M{}
	if f.Cuisine != nil {
		q["cuisine_type"] = *f.Cuisine
	}
	if f.MinRating != nil {
		q["rating"] = bson.M{"$gte": *f.MinRating}
	}
	if f.Vegetarian != nil && *f.Vegetarian {
		q["menu.is_vegetarian"] = true
	}
	return q
}

func (r *repository) CreateRestaurant(ctx context.Context, rest *Restaurant) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	if rest.Menu == nil {
		rest.Menu = []MenuItem{}
	}

	_, err := r.coll.InsertOne(ctx, rest)
	if db.IsDuplicateKey(err) {
		return ErrRestaurantExists
	}
	return db.Classify(err)
}

// UpdateRestaurant replaces the descriptive fields and bumps the version.
// The menu is left untouched. A positive expectedVersion must match the
// stored version.
func (r *repository) UpdateRestaurant(ctx context.Context, rest *Restaurant, expectedVersion int64) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"id": rest.ID}
	if expectedVersion > 0 {
		filter["version"] = expectedVersion
	}

	update := bson.M{
		"$set": bson.M{
			"name":         rest.Name,
			"cuisine_type": rest.CuisineType,
			"rating":       rest.Rating,
			"address":      rest.Address,
			"description":  rest.Description,
			"updated_at":   rest.UpdatedAt,
			"updated_by":   rest.UpdatedBy,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if db.IsDuplicateKey(err) {
		return ErrRestaurantExists
	}
	if err != nil {
		return db.Classify(err)
	}
	if res.MatchedCount == 0 {
		if expectedVersion > 0 {
			return r.missOrConflict(ctx, rest.ID, ErrVersionConflict)
		}
		return ErrRestaurantNotFound
	}
	return nil
}

func (r *repository) DeleteRestaurant(ctx context.Context, id string) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return db.Classify(err)
	}
	if res.DeletedCount == 0 {
		return ErrRestaurantNotFound
	}
	return nil
}

func (r *repository) AddMenuItem(ctx context.Context, restaurantID string, item MenuItem, actorID string, at time.Time) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"id":        restaurantID,
		"menu.name": bson.M{"$ne": item.Name},
	}
	update := bson.M{
		"$push": bson.M{"menu": item},
		"$set":  bson.M{"updated_at": at, "updated_by": actorID},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return db.Classify(err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, restaurantID, ErrMenuItemExists)
	}
	return nil
}

// UpdateMenuItem replaces the item with the same id. The filter also refuses
// a rename onto another item's name.
func (r *repository) UpdateMenuItem(ctx context.Context, restaurantID string, item MenuItem, actorID string, at time.Time) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{
		"id":      restaurantID,
		"menu.id": item.ID,
		"menu": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"name": item.Name,
			"id":   bson.M{"$ne": item.ID},
		}}},
	}
	update := bson.M{
		"$set": bson.M{"menu.$": item, "updated_at": at, "updated_by": actorID},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return db.Classify(err)
	}
	if res.MatchedCount == 0 {
		return r.diagnoseItemMiss(ctx, restaurantID, item.ID, ErrMenuItemExists)
	}
	return nil
}

func (r *repository) RemoveMenuItem(ctx context.Context, restaurantID, itemID, actorID string, at time.Time) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"id": restaurantID, "menu.id": itemID}
	update := bson.M{
		"$pull": bson.M{"menu": bson.M{"id": itemID}},
		"$set":  bson.M{"updated_at": at, "updated_by": actorID},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return db.Classify(err)
	}
	if res.MatchedCount == 0 {
		return r.diagnoseItemMiss(ctx, restaurantID, itemID, ErrMenuItemNotFound)
	}
	return nil
}

// missOrConflict tells a missing restaurant apart from a failed guard.
func (r *repository) missOrConflict(ctx context.Context, restaurantID string, conflict error) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"id": restaurantID})
	if err != nil {
		return db.Classify(err)
	}
	if n == 0 {
		return ErrRestaurantNotFound
	}
	return conflict
}

func (r *repository) diagnoseItemMiss(ctx context.Context, restaurantID, itemID string, otherwise error) error {
	rest, err := r.findOne(ctx, bson.M{"id": restaurantID})
	if err != nil {
		return err
	}
	if _, ok := rest.MenuItemByID(itemID); !ok {
		return ErrMenuItemNotFound
	}
	return otherwise
}
