// Package mongostore persists the Entity Store in MongoDB. Uniqueness is
// backed by unique indexes and cascades run inside a session transaction,
// so a half-deleted post or user is never observable.
package mongostore

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ripple/models"
	"ripple/store"
)

type Mongostore struct {
	client   *mongo.Client
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
	likes    *mongo.Collection
	follows  *mongo.Collection
}

// Connect dials MongoDB, pings it and prepares the collections. The caller
// owns the returned store for the process lifetime.
func Connect(ctx context.Context, uri, dbName string) (*Mongostore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	s := &Mongostore{
		client:   client,
		users:    db.Collection("users"),
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
		likes:    db.Collection("likes"),
		follows:  db.Collection("follows"),
	}
	log.Println("Connected to MongoDB successfully")
	return s, nil
}

// EnsureIndexes creates the uniqueness constraints the write paths rely on.
func (s *Mongostore) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})
	if err != nil {
		return err
	}
	_, err = s.follows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "followerId", Value: 1}, {Key: "followingId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}
	_, err = s.likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "postId", Value: 1}},
		Options: unique,
	})
	return err
}

func (s *Mongostore) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Mongostore) Users() store.UserStore       { return &userStore{s.users} }
func (s *Mongostore) Posts() store.PostStore       { return &postStore{s.posts} }
func (s *Mongostore) Comments() store.CommentStore { return &commentStore{s.comments} }
func (s *Mongostore) Likes() store.LikeStore       { return &likeStore{s.likes} }
func (s *Mongostore) Follows() store.FollowStore   { return &followStore{s.follows} }

// WithTx runs fn inside a session transaction. The SessionContext handed to
// fn must be used for every store call so they join the transaction.
func (s *Mongostore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

// ---- users ----

type userStore struct{ coll *mongo.Collection }

func (s *userStore) Insert(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, u)
	return translate(err)
}

func (s *userStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *userStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *userStore) List(ctx context.Context, opts store.ListOptions) ([]models.User, error) {
	findOpts := options.Find()
	order := 1
	if strings.EqualFold(opts.Sort, "desc") {
		order = -1
	}
	findOpts.SetSort(bson.D{{Key: "username", Value: order}})
	if opts.Limit > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		findOpts.SetLimit(int64(opts.Limit))
		findOpts.SetSkip(int64((page - 1) * opts.Limit))
	}

	cursor, err := s.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userStore) Update(ctx context.Context, u *models.User) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- posts ----

type postStore struct{ coll *mongo.Collection }

func (s *postStore) Insert(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, p)
	return translate(err)
}

func (s *postStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *postStore) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.list(ctx, bson.M{})
}

func (s *postStore) ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return s.list(ctx, bson.M{"userId": userID})
}

func (s *postStore) list(ctx context.Context, filter bson.M) ([]models.Post, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *postStore) Update(ctx context.Context, p *models.Post) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *postStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---- comments ----

type commentStore struct{ coll *mongo.Collection }

func (s *commentStore) Insert(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, c)
	return translate(err)
}

func (s *commentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *commentStore) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"postId": postID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *commentStore) Update(ctx context.Context, c *models.Comment) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *commentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *commentStore) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"postId": postID})
	return err
}

func (s *commentStore) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// ---- likes ----

type likeStore struct{ coll *mongo.Collection }

func (s *likeStore) Insert(ctx context.Context, l *models.Like) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, l)
	return translate(err)
}

func (s *likeStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Like, error) {
	var l models.Like
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *likeStore) FindByUserAndPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.Like, error) {
	var l models.Like
	err := s.coll.FindOne(ctx, bson.M{"userId": userID, "postId": postID}).Decode(&l)
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *likeStore) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Like, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"postId": postID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	likes := []models.Like{}
	if err := cursor.All(ctx, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (s *likeStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *likeStore) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"postId": postID})
	return err
}

func (s *likeStore) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// ---- follows ----

type followStore struct{ coll *mongo.Collection }

func (s *followStore) Insert(ctx context.Context, f *models.Follow) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, f)
	return translate(err)
}

func (s *followStore) Has(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"followerId": followerID, "followingId": followingID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *followStore) Remove(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"followerId": followerID, "followingId": followingID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *followStore) Followers(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.endpoints(ctx, bson.M{"followingId": userID}, func(f models.Follow) primitive.ObjectID {
		return f.FollowerID
	})
}

func (s *followStore) Following(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.endpoints(ctx, bson.M{"followerId": userID}, func(f models.Follow) primitive.ObjectID {
		return f.FollowingID
	})
}

func (s *followStore) endpoints(ctx context.Context, filter bson.M, pick func(models.Follow) primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var follows []models.Follow
	if err := cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, pick(f))
	}
	return ids, nil
}

func (s *followStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{
		"$or": []bson.M{{"followerId": userID}, {"followingId": userID}},
	})
	return err
}
