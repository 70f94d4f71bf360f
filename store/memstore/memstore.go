// Package memstore is a mutex-guarded, map-backed Store used by the service
// and engine tests. It honors the same contract as the Mongo store:
// uniqueness on username, email, follow pairs and like pairs, and atomic
// WithTx with rollback on error.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ripple/models"
	"ripple/store"
)

type txKey struct{}

type Memstore struct {
	mu sync.Mutex

	users    map[primitive.ObjectID]models.User
	posts    map[primitive.ObjectID]models.Post
	comments map[primitive.ObjectID]models.Comment
	likes    map[primitive.ObjectID]models.Like
	follows  map[primitive.ObjectID]models.Follow
}

func New() *Memstore {
	return &Memstore{
		users:    make(map[primitive.ObjectID]models.User),
		posts:    make(map[primitive.ObjectID]models.Post),
		comments: make(map[primitive.ObjectID]models.Comment),
		likes:    make(map[primitive.ObjectID]models.Like),
		follows:  make(map[primitive.ObjectID]models.Follow),
	}
}

func (m *Memstore) Users() store.UserStore       { return (*userStore)(m) }
func (m *Memstore) Posts() store.PostStore       { return (*postStore)(m) }
func (m *Memstore) Comments() store.CommentStore { return (*commentStore)(m) }
func (m *Memstore) Likes() store.LikeStore       { return (*likeStore)(m) }
func (m *Memstore) Follows() store.FollowStore   { return (*followStore)(m) }

// WithTx holds the store lock for the duration of fn and restores a
// snapshot of every table if fn fails, so partial cascades are never
// observable.
func (m *Memstore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil { // already inside a transaction
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	users := copyMap(m.users)
	posts := copyMap(m.posts)
	comments := copyMap(m.comments)
	likes := copyMap(m.likes)
	follows := copyMap(m.follows)

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.users, m.posts, m.comments, m.likes, m.follows = users, posts, comments, likes, follows
		return err
	}
	return nil
}

func copyMap[V any](src map[primitive.ObjectID]V) map[primitive.ObjectID]V {
	dst := make(map[primitive.ObjectID]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// lock acquires the store mutex unless the call already runs inside WithTx.
func (m *Memstore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// ---- users ----

type userStore Memstore

func (s *userStore) Insert(ctx context.Context, u *models.User) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = *u
	return nil
}

func (s *userStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *userStore) List(ctx context.Context, opts store.ListOptions) ([]models.User, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		less := strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
		if strings.EqualFold(opts.Sort, "desc") {
			return !less
		}
		return less
	})
	return paginate(users, opts), nil
}

func paginate(users []models.User, opts store.ListOptions) []models.User {
	if opts.Limit <= 0 {
		return users
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * opts.Limit
	if start >= len(users) {
		return []models.User{}
	}
	end := start + opts.Limit
	if end > len(users) {
		end = len(users)
	}
	return users[start:end]
}

func (s *userStore) Update(ctx context.Context, u *models.User) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	for id, existing := range m.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (s *userStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// ---- posts ----

type postStore Memstore

func (s *postStore) Insert(ctx context.Context, p *models.Post) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.posts[p.ID] = *p
	return nil
}

func (s *postStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	p, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *postStore) ListAll(ctx context.Context) ([]models.Post, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	posts := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt > posts[j].CreatedAt })
	return posts, nil
}

func (s *postStore) ListByAuthor(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	var posts []models.Post
	for _, p := range m.posts {
		if p.UserID == userID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt > posts[j].CreatedAt })
	return posts, nil
}

func (s *postStore) Update(ctx context.Context, p *models.Post) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.posts[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.posts[p.ID] = *p
	return nil
}

func (s *postStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

// ---- comments ----

type commentStore Memstore

func (s *commentStore) Insert(ctx context.Context, c *models.Comment) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.comments[c.ID] = *c
	return nil
}

func (s *commentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	c, ok := m.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *commentStore) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	var comments []models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt < comments[j].CreatedAt })
	return comments, nil
}

func (s *commentStore) Update(ctx context.Context, c *models.Comment) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.comments[c.ID]; !ok {
		return store.ErrNotFound
	}
	m.comments[c.ID] = *c
	return nil
}

func (s *commentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (s *commentStore) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for id, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, id)
		}
	}
	return nil
}

func (s *commentStore) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for id, c := range m.comments {
		if c.UserID == userID {
			delete(m.comments, id)
		}
	}
	return nil
}

// ---- likes ----

type likeStore Memstore

func (s *likeStore) Insert(ctx context.Context, l *models.Like) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, existing := range m.likes {
		if existing.UserID == l.UserID && existing.PostID == l.PostID {
			return store.ErrDuplicate
		}
	}
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	m.likes[l.ID] = *l
	return nil
}

func (s *likeStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Like, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	l, ok := m.likes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &l, nil
}

func (s *likeStore) FindByUserAndPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.Like, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, l := range m.likes {
		if l.UserID == userID && l.PostID == postID {
			l := l
			return &l, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *likeStore) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Like, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	var likes []models.Like
	for _, l := range m.likes {
		if l.PostID == postID {
			likes = append(likes, l)
		}
	}
	sort.Slice(likes, func(i, j int) bool { return likes[i].CreatedAt < likes[j].CreatedAt })
	return likes, nil
}

func (s *likeStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	if _, ok := m.likes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.likes, id)
	return nil
}

func (s *likeStore) DeleteByPost(ctx context.Context, postID primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for id, l := range m.likes {
		if l.PostID == postID {
			delete(m.likes, id)
		}
	}
	return nil
}

func (s *likeStore) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for id, l := range m.likes {
		if l.UserID == userID {
			delete(m.likes, id)
		}
	}
	return nil
}

// ---- follows ----

type followStore Memstore

func (s *followStore) Insert(ctx context.Context, f *models.Follow) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, existing := range m.follows {
		if existing.FollowerID == f.FollowerID && existing.FollowingID == f.FollowingID {
			return store.ErrDuplicate
		}
	}
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	m.follows[f.ID] = *f
	return nil
}

func (s *followStore) Has(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for _, f := range m.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *followStore) Remove(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for id, f := range m.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			delete(m.follows, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *followStore) Followers(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	var ids []primitive.ObjectID
	for _, f := range m.follows {
		if f.FollowingID == userID {
			ids = append(ids, f.FollowerID)
		}
	}
	return ids, nil
}

func (s *followStore) Following(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	var ids []primitive.ObjectID
	for _, f := range m.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

func (s *followStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	m := (*Memstore)(s)
	defer m.lock(ctx)()
	for id, f := range m.follows {
		if f.FollowerID == userID || f.FollowingID == userID {
			delete(m.follows, id)
		}
	}
	return nil
}
