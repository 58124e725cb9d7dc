package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Post is a blog post document stored in the "posts" collection.
// Likes hold author IDs with set semantics; comments are append-only.
type Post struct {
	ID          bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string          `bson:"title" json:"title"`
	Content     string          `bson:"content" json:"content"`
	AuthorID    bson.ObjectID   `bson:"author" json:"authorId"`
	Tags        []string        `bson:"tags" json:"tags"`
	Image       string          `bson:"image,omitempty" json:"image,omitempty"`
	IsPublished bool            `bson:"isPublished" json:"isPublished"`
	Likes       []bson.ObjectID `bson:"likes" json:"-"`
	Comments    []Comment       `bson:"comments" json:"comments"`
	ViewCount   int64           `bson:"viewCount" json:"viewCount"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updatedAt"`

	// Populated in responses only, never stored.
	Author    *UserRef  `bson:"-" json:"author,omitempty"`
	LikedBy   []UserRef `bson:"-" json:"likes"`
	LikeCount int       `bson:"-" json:"likeCount"`
}

// Comment is an embedded post comment. Comments cannot be edited or removed.
type Comment struct {
	ID        bson.ObjectID `bson:"_id" json:"id"`
	UserID    bson.ObjectID `bson:"user" json:"userId"`
	Content   string        `bson:"content" json:"content"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`

	// Populated in responses only.
	User *UserRef `bson:"-" json:"user,omitempty"`
}

// UserRef is the public slice of a user attached to posts, likes and comments.
type UserRef struct {
	ID     bson.ObjectID `json:"id"`
	Name   string        `json:"name"`
	Avatar string        `json:"avatar,omitempty"`
}

// TagCount is one entry of the popular-tags aggregation.
type TagCount struct {
	Tag   string `bson:"_id" json:"tag"`
	Count int64  `bson:"count" json:"count"`
}

// CommentCount returns the number of comments on the post.
func (p *Post) CommentCount() int {
	return len(p.Comments)
}

// IsLikedBy reports whether the given user currently likes the post.
func (p *Post) IsLikedBy(userID bson.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
