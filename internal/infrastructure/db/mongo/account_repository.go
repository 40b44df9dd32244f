package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

const (
	collectionUsers = "users"

	indexUsername   = "users_username_unique"
	indexEmail      = "users_email_unique"
	indexResetToken = "users_reset_token"
)

// publicProjection strips credential material from every read except FindCredentials.
var publicProjection = bson.M{
	"password_hash":             0,
	"reset_password_token_hash": 0,
	"reset_password_expire":     0,
}

type AccountRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionUsers), now: time.Now}
}

type userDocument struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Username               string             `bson:"username"`
	Email                  string             `bson:"email"`
	PasswordHash           string             `bson:"password_hash,omitempty"`
	Favorites              []string           `bson:"favorites"`
	ResetPasswordTokenHash string             `bson:"reset_password_token_hash,omitempty"`
	ResetPasswordExpire    *time.Time         `bson:"reset_password_expire,omitempty"`
	CreatedAt              time.Time          `bson:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at"`
}

func (d *userDocument) toDomain() *domain.User {
	favorites := d.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return &domain.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Email:     d.Email,
		Favorites: favorites,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Create inserts a user. Unique index violations map to domain.ErrUsernameTaken
// or domain.ErrEmailTaken.
func (r *AccountRepository) Create(ctx context.Context, user *domain.User, passwordHash string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: passwordHash,
		Favorites:    user.Favorites,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if doc.Favorites == nil {
		doc.Favorites = []string{}
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func duplicateKeyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, indexEmail):
		return fmt.Errorf("%w: %v", domain.ErrEmailTaken, err)
	case strings.Contains(msg, indexUsername):
		return fmt.Errorf("%w: %v", domain.ErrUsernameTaken, err)
	}
	return fmt.Errorf("insert user: %w", err)
}

func (r *AccountRepository) FindUser(ctx context.Context, id domain.Identifier) (*domain.User, error) {
	doc, err := r.findOne(ctx, identifierFilter(id), publicProjection)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	doc, err := r.findOne(ctx, bson.M{"_id": oid}, publicProjection)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// FindCredentials is the only read that includes the password hash.
func (r *AccountRepository) FindCredentials(ctx context.Context, id domain.Identifier) (*domain.Credentials, error) {
	doc, err := r.findOne(ctx, identifierFilter(id), bson.M{
		"reset_password_token_hash": 0,
		"reset_password_expire":     0,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Credentials{User: *doc.toDomain(), PasswordHash: doc.PasswordHash}, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M, projection bson.M) (*userDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	err := r.col.FindOne(ctx, filter, options.FindOne().SetProjection(projection)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}

// SetPasswordReset writes both reset fields in one update.
func (r *AccountRepository) SetPasswordReset(ctx context.Context, userID string, reset domain.PasswordReset) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	expire := reset.ExpiresAt.UTC()
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"reset_password_token_hash": reset.TokenHash,
			"reset_password_expire":     expire,
			"updated_at":                r.now().UTC(),
		},
	})
}

// ClearPasswordReset removes both reset fields in one update.
func (r *AccountRepository) ClearPasswordReset(ctx context.Context, userID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}
	return r.updateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$unset": bson.M{"reset_password_token_hash": "", "reset_password_expire": ""},
		"$set":   bson.M{"updated_at": r.now().UTC()},
	})
}

func (r *AccountRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumePasswordReset redeems a reset with a single find-and-update, so the
// token cannot be used twice even by concurrent requests.
func (r *AccountRepository) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"reset_password_token_hash": tokenHash,
		"reset_password_expire":     bson.M{"$gt": now.UTC()},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now.UTC()},
		"$unset": bson.M{"reset_password_token_hash": "", "reset_password_expire": ""},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("consume password reset: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique indexes that make the store the final
// authority on username and email uniqueness.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(indexUsername).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reset_password_token_hash", Value: 1}},
			Options: options.Index().SetName(indexResetToken).SetSparse(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func identifierFilter(id domain.Identifier) bson.M {
	if id.IsEmail() {
		return bson.M{"email": id.Value}
	}
	return bson.M{"username": id.Value}
}
