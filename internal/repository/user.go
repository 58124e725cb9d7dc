package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserRepository is the user persistence interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetManyByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error)
	List(ctx context.Context, limit, skip int) ([]*models.User, int64, error)
	Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error)
}

type mongoUserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection(database.UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, done := trackOp(ctx, "insert", database.UsersCollection)
	defer done()

	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		failOp(ctx, "insert", database.UsersCollection, err)
		return err
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	ctx, done := trackOp(ctx, "findOne", database.UsersCollection)
	defer done()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOne", database.UsersCollection, err)
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, done := trackOp(ctx, "findOne", database.UsersCollection)
	defer done()

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOne", database.UsersCollection, err)
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepository) GetManyByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	ctx, done := trackOp(ctx, "find", database.UsersCollection)
	defer done()

	cur, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		failOp(ctx, "find", database.UsersCollection, err)
		return nil, err
	}
	defer cur.Close(ctx)

	users := []*models.User{}
	if err := cur.All(ctx, &users); err != nil {
		failOp(ctx, "find", database.UsersCollection, err)
		return nil, err
	}
	return users, nil
}

func (r *mongoUserRepository) List(ctx context.Context, limit, skip int) ([]*models.User, int64, error) {
	ctx, done := trackOp(ctx, "find", database.UsersCollection)
	defer done()

	total, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		failOp(ctx, "count", database.UsersCollection, err)
		return nil, 0, err
	}

	cur, err := r.users.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit)))
	if err != nil {
		failOp(ctx, "find", database.UsersCollection, err)
		return nil, 0, err
	}
	defer cur.Close(ctx)

	users := []*models.User{}
	if err := cur.All(ctx, &users); err != nil {
		failOp(ctx, "find", database.UsersCollection, err)
		return nil, 0, err
	}
	return users, total, nil
}

func (r *mongoUserRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.User, error) {
	ctx, done := trackOp(ctx, "findOneAndUpdate", database.UsersCollection)
	defer done()

	set["updatedAt"] = time.Now().UTC()

	var user models.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOneAndUpdate", database.UsersCollection, err)
		return nil, err
	}
	return &user, nil
}
