package mongo

import (
	"context"
	"strings"
	"time"

	"authgate/internal/domain/entity"
	domainerrors "authgate/internal/domain/errors"
	"authgate/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const duplicateKeyCode = 11000

type userDocument struct {
	ID                     string     `bson:"_id"`
	Username               string     `bson:"username"`
	Email                  string     `bson:"email"`
	PasswordHash           string     `bson:"password_hash"`
	ProfilePicture         string     `bson:"profile_picture"`
	RefreshToken           *string    `bson:"refresh_token,omitempty"`
	RefreshTokenExpiresAt  *time.Time `bson:"refresh_token_expires_at,omitempty"`
	ResetPasswordToken     *string    `bson:"reset_password_token,omitempty"`
	ResetPasswordExpiresAt *time.Time `bson:"reset_password_expires_at,omitempty"`
	CreatedAt              time.Time  `bson:"created_at"`
	UpdatedAt              time.Time  `bson:"updated_at"`
}

type userRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewUserRepository returns a repository.UserRepository over collection.
func NewUserRepository(collection *mongo.Collection) repository.UserRepository {
	return &userRepository{collection: collection, now: time.Now}
}

func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, bson.M{"_id": id.String()}, "failed to find user by id")
}

func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, bson.M{"email": email}, "failed to find user by email")
}

func (repo *userRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*entity.User, error) {
	user, err := repo.findOne(ctx, liveToken("reset_password_token", "reset_password_expires_at", token, now),
		"failed to find user by reset token")
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, repository.ErrResetTokenNotFound
	}

	return user, err
}

func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "generate user id")
		}
		user.ID = id
	}

	now := repo.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := repo.collection.InsertOne(ctx, fromUserDomain(user)); err != nil {
		if dup := duplicateKey(err); dup != nil {
			return dup
		}

		return domainerrors.NewUpstreamError(err, "failed to create user")
	}

	return nil
}

func (repo *userRepository) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return repo.updateByID(ctx, userID, bson.M{
		"refresh_token":            token,
		"refresh_token_expires_at": expiresAt,
	}, nil, "failed to save refresh token")
}

// RotateRefreshToken uses FindOneAndUpdate so the match and the swap are one server-side operation.
func (repo *userRepository) RotateRefreshToken(ctx context.Context, presented, next string, nextExpiresAt, now time.Time) (*entity.User, error) {
	return repo.findOneAndUpdate(ctx,
		liveToken("refresh_token", "refresh_token_expires_at", presented, now),
		repo.update(bson.M{
			"refresh_token":            next,
			"refresh_token_expires_at": nextExpiresAt,
		}, nil),
		repository.ErrRefreshTokenNotFound,
		"failed to rotate refresh token",
	)
}

func (repo *userRepository) ClearRefreshToken(ctx context.Context, token string) (bool, error) {
	res, err := repo.collection.UpdateOne(ctx,
		bson.M{"refresh_token": token},
		repo.update(nil, []string{"refresh_token", "refresh_token_expires_at"}),
	)
	if err != nil {
		return false, domainerrors.NewUpstreamError(err, "failed to clear refresh token")
	}

	return res.MatchedCount > 0, nil
}

func (repo *userRepository) SaveResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return repo.updateByID(ctx, userID, bson.M{
		"reset_password_token":      token,
		"reset_password_expires_at": expiresAt,
	}, nil, "failed to save reset token")
}

func (repo *userRepository) ClearResetToken(ctx context.Context, userID uuid.UUID) error {
	return repo.updateByID(ctx, userID, nil,
		[]string{"reset_password_token", "reset_password_expires_at"},
		"failed to clear reset token")
}

func (repo *userRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*entity.User, error) {
	return repo.findOneAndUpdate(ctx,
		liveToken("reset_password_token", "reset_password_expires_at", token, now),
		repo.update(bson.M{"password_hash": passwordHash},
			[]string{"reset_password_token", "reset_password_expires_at"}),
		repository.ErrResetTokenNotFound,
		"failed to consume reset token",
	)
}

func (repo *userRepository) findOne(ctx context.Context, filter bson.M, failure string) (*entity.User, error) {
	var doc userDocument

	if err := repo.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrUserNotFound
		}

		return nil, domainerrors.NewUpstreamError(err, failure)
	}

	return toUserDomain(&doc)
}

func (repo *userRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, notFound error, failure string) (*entity.User, error) {
	var doc userDocument

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := repo.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}

		return nil, domainerrors.NewUpstreamError(err, failure)
	}

	return toUserDomain(&doc)
}

func (repo *userRepository) updateByID(ctx context.Context, userID uuid.UUID, set bson.M, unset []string, failure string) error {
	res, err := repo.collection.UpdateOne(ctx, bson.M{"_id": userID.String()}, repo.update(set, unset))
	if err != nil {
		return domainerrors.NewUpstreamError(err, failure)
	}

	if res.MatchedCount == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// update builds a $set/$unset document that also bumps updated_at.
func (repo *userRepository) update(set bson.M, unset []string) bson.M {
	fields := bson.M{"updated_at": repo.now().UTC()}
	for k, v := range set {
		fields[k] = v
	}

	update := bson.M{"$set": fields}

	if len(unset) > 0 {
		removed := bson.M{}
		for _, field := range unset {
			removed[field] = ""
		}
		update["$unset"] = removed
	}

	return update
}

func liveToken(tokenField, expiresField, token string, now time.Time) bson.M {
	return bson.M{
		tokenField:   token,
		expiresField: bson.M{"$gt": now},
	}
}

// duplicateKey maps an E11000 write error to the sentinel for the colliding index.
func duplicateKey(err error) error {
	var writeErr mongo.WriteException
	if !errors.As(err, &writeErr) {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateUser
		}

		return nil
	}

	for _, we := range writeErr.WriteErrors {
		if we.Code != duplicateKeyCode {
			continue
		}

		switch {
		case strings.Contains(we.Message, indexEmail):
			return repository.ErrEmailTaken
		case strings.Contains(we.Message, indexUsername):
			return repository.ErrUsernameTaken
		default:
			return repository.ErrDuplicateUser
		}
	}

	return nil
}

func toUserDomain(doc *userDocument) (*entity.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid user id %q", doc.ID)
	}

	return &entity.User{
		ID:                     id,
		Username:               doc.Username,
		Email:                  doc.Email,
		PasswordHash:           doc.PasswordHash,
		ProfilePicture:         doc.ProfilePicture,
		RefreshToken:           doc.RefreshToken,
		RefreshTokenExpiresAt:  doc.RefreshTokenExpiresAt,
		ResetPasswordToken:     doc.ResetPasswordToken,
		ResetPasswordExpiresAt: doc.ResetPasswordExpiresAt,
		CreatedAt:              doc.CreatedAt,
		UpdatedAt:              doc.UpdatedAt,
	}, nil
}

func fromUserDomain(user *entity.User) *userDocument {
	return &userDocument{
		ID:                     user.ID.String(),
		Username:               user.Username,
		Email:                  user.Email,
		PasswordHash:           user.PasswordHash,
		ProfilePicture:         user.ProfilePicture,
		RefreshToken:           user.RefreshToken,
		RefreshTokenExpiresAt:  user.RefreshTokenExpiresAt,
		ResetPasswordToken:     user.ResetPasswordToken,
		ResetPasswordExpiresAt: user.ResetPasswordExpiresAt,
		CreatedAt:              user.CreatedAt,
		UpdatedAt:              user.UpdatedAt,
	}
}
