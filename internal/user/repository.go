package user

import (
	"context"
	"errors"
	"time"

	"biteme-be/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

type Repository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*User, error)
	SetAdmin(ctx context.Context, email string, admin bool, at time.Time) (*User, error)
}

type userDocument struct {
	ObjectID primitive.ObjectID `bson:"_id,omitempty"`
	User     `bson:",inline"`
}

func (d *userDocument) toUser() *User {
	u := d.User
	u.ID = d.ObjectID.Hex()
	return &u
}

type repository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewRepository(database *mongo.Database, timeout time.Duration) Repository {
	return &repository{
		coll:    database.Collection(usersCollection),
		timeout: timeout,
	}
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return db.Classify(err)
}

// Create inserts the user and sets u.ID from the generated key.
func (r *repository) Create(ctx context.Context, u *User) error {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := userDocument{ObjectID: primitive.NewObjectID(), User: *u}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if db.IsDuplicateKey(err) {
			return ErrEmailExists
		}
		return db.Classify(err)
	}

	u.ID = doc.ObjectID.Hex()
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *repository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return doc.toUser(), nil
}

func (r *repository) UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	set := bson.M{"updated_at": changes.UpdatedAt}
	if changes.Email != nil {
		set["email"] = *changes.Email
	}
	if changes.FullName != nil {
		set["full_name"] = *changes.FullName
	}
	if changes.PhoneNumber != nil {
		set["phone_number"] = *changes.PhoneNumber
	}
	if changes.HashedPassword != nil {
		set["hashed_password"] = *changes.HashedPassword
	}

	return r.findOneAndSet(ctx, bson.M{"_id": oid}, set)
}

func (r *repository) SetAdmin(ctx context.Context, email string, admin bool, at time.Time) (*User, error) {
	return r.findOneAndSet(ctx, bson.M{"email": email}, bson.M{
		"is_admin":   admin,
		"updated_at": at,
	})
}

func (r *repository) findOneAndSet(ctx context.Context, filter, set bson.M) (*User, error) {
	ctx, cancel := db.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrUserNotFound
	case db.IsDuplicateKey(err):
		return nil, ErrEmailExists
	case err != nil:
		return nil, db.Classify(err)
	}
	return doc.toUser(), nil
}
