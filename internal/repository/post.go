// Package repository provides data access against the MongoDB document store.
package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PostFilter narrows a post listing. Zero values mean "no filter".
// All set filters apply conjunctively; only published posts are returned.
type PostFilter struct {
	Search string
	Tag    string
	Author *bson.ObjectID
}

// PostRepository is the post persistence interface.
// Implementations return (nil, nil) from single-document reads when the
// document does not exist; callers map that to a not-found error.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id bson.ObjectID) (*models.Post, error)
	IncrementViews(ctx context.Context, id bson.ObjectID) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, skip int) ([]*models.Post, int64, error)
	Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Post, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	AddLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, error)
	RemoveLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, error)
	AddComment(ctx context.Context, postID bson.ObjectID, comment models.Comment) (*models.Post, error)
	PopularTags(ctx context.Context, limit int) ([]models.TagCount, error)
}

type mongoPostRepository struct {
	posts *mongo.Collection
}

// trackOp starts a repository span and latency timer for a store operation.
// The returned context carries the span; the caller defers done.
func trackOp(ctx context.Context, op, coll string) (context.Context, func()) {
	ctx, span := observability.TraceRepositoryMethod(ctx, op, coll)
	stop := observability.TrackQuery(op, coll)
	return ctx, func() {
		stop()
		span.End()
	}
}

// failOp records a store failure on the error counter and the span in ctx.
func failOp(ctx context.Context, op, coll string, err error) {
	observability.RecordStoreError(op, coll)
	observability.RecordErrorInContext(ctx, err)
}

// NewPostRepository creates a MongoDB-backed post repository.
func NewPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{posts: db.Collection(database.PostsCollection)}
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, done := trackOp(ctx, "insert", database.PostsCollection)
	defer done()

	now := time.Now().UTC()
	post.ID = bson.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Likes == nil {
		post.Likes = []bson.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}

	if _, err := r.posts.InsertOne(ctx, post); err != nil {
		failOp(ctx, "insert", database.PostsCollection, err)
		return err
	}
	return nil
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	ctx, done := trackOp(ctx, "findOne", database.PostsCollection)
	defer done()

	var post models.Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOne", database.PostsCollection, err)
		return nil, err
	}
	return &post, nil
}

// IncrementViews atomically bumps viewCount and returns the updated document.
func (r *mongoPostRepository) IncrementViews(ctx context.Context, id bson.ObjectID) (*models.Post, error) {
	ctx, done := trackOp(ctx, "findOneAndUpdate", database.PostsCollection)
	defer done()

	var post models.Post
	err := r.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"viewCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOneAndUpdate", database.PostsCollection, err)
		return nil, err
	}
	return &post, nil
}

func (f PostFilter) query() bson.M {
	query := bson.M{"isPublished": true}
	if f.Search != "" {
		query["$text"] = bson.M{"$search": f.Search}
	}
	if f.Tag != "" {
		query["tags"] = bson.M{"$in": []string{f.Tag}}
	}
	if f.Author != nil {
		query["author"] = *f.Author
	}
	return query
}

func (r *mongoPostRepository) List(ctx context.Context, filter PostFilter, limit, skip int) ([]*models.Post, int64, error) {
	ctx, done := trackOp(ctx, "find", database.PostsCollection)
	defer done()

	query := filter.query()

	total, err := r.posts.CountDocuments(ctx, query)
	if err != nil {
		failOp(ctx, "count", database.PostsCollection, err)
		return nil, 0, err
	}

	// Newest first; _id breaks ties deterministically for posts created in
	// the same millisecond.
	cur, err := r.posts.Find(ctx, query, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit)))
	if err != nil {
		failOp(ctx, "find", database.PostsCollection, err)
		return nil, 0, err
	}
	defer cur.Close(ctx)

	posts := []*models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		failOp(ctx, "find", database.PostsCollection, err)
		return nil, 0, err
	}
	return posts, total, nil
}

// Update applies the given $set fields and returns the updated document.
func (r *mongoPostRepository) Update(ctx context.Context, id bson.ObjectID, set bson.M) (*models.Post, error) {
	ctx, done := trackOp(ctx, "findOneAndUpdate", database.PostsCollection)
	defer done()

	set["updatedAt"] = time.Now().UTC()

	var post models.Post
	err := r.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOneAndUpdate", database.PostsCollection, err)
		return nil, err
	}
	return &post, nil
}

func (r *mongoPostRepository) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, done := trackOp(ctx, "deleteOne", database.PostsCollection)
	defer done()

	if _, err := r.posts.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		failOp(ctx, "deleteOne", database.PostsCollection, err)
		return err
	}
	return nil
}

// AddLike records a like with set semantics; re-liking is a no-op.
func (r *mongoPostRepository) AddLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, error) {
	return r.updateLikes(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

// RemoveLike removes a like; removing an absent like is a no-op.
func (r *mongoPostRepository) RemoveLike(ctx context.Context, postID, userID bson.ObjectID) (*models.Post, error) {
	return r.updateLikes(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *mongoPostRepository) updateLikes(ctx context.Context, postID bson.ObjectID, update bson.M) (*models.Post, error) {
	ctx, done := trackOp(ctx, "findOneAndUpdate", database.PostsCollection)
	defer done()

	var post models.Post
	err := r.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOneAndUpdate", database.PostsCollection, err)
		return nil, err
	}
	return &post, nil
}

func (r *mongoPostRepository) AddComment(ctx context.Context, postID bson.ObjectID, comment models.Comment) (*models.Post, error) {
	ctx, done := trackOp(ctx, "findOneAndUpdate", database.PostsCollection)
	defer done()

	var post models.Post
	err := r.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		failOp(ctx, "findOneAndUpdate", database.PostsCollection, err)
		return nil, err
	}
	return &post, nil
}

// PopularTags counts tag occurrences across published posts and returns the
// top entries, most used first.
func (r *mongoPostRepository) PopularTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	ctx, done := trackOp(ctx, "aggregate", database.PostsCollection)
	defer done()

	if limit <= 0 {
		limit = 10
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isPublished": true}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	cur, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		failOp(ctx, "aggregate", database.PostsCollection, err)
		return nil, err
	}
	defer cur.Close(ctx)

	tags := []models.TagCount{}
	if err := cur.All(ctx, &tags); err != nil {
		failOp(ctx, "aggregate", database.PostsCollection, err)
		return nil, err
	}
	return tags, nil
}
