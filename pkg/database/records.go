package database

import (
	"context"
	"time"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// UserRecords keeps warn points and mute state, one document per guild
// member. Every mutation is a single conditional update.
type UserRecords struct {
	db *Database
}

var _ moderation.Accumulator = (*UserRecords)(nil)

// NewUserRecords creates the accumulator on db
func NewUserRecords(db *Database) *UserRecords {
	return &UserRecords{db: db}
}

func (r *UserRecords) col() (*mongo.Collection, error) {
	if !r.db.Connected() {
		return nil, ErrNotConnected
	}
	col := r.db.GetCollection(UsersCollection)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

func userFilter(guildID, userID string) bson.M {
	return bson.M{"guildId": guildID, "userId": userID}
}

func (r *UserRecords) ApplyDelta(ctx context.Context, guildID, userID string, delta int) (int, error) {
	col, err := r.col()
	if err != nil {
		return 0, err
	}

	filter := userFilter(guildID, userID)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if delta < 0 {
		// only match when enough points are left
		filter["warnPoints"] = bson.M{"$gte": -delta}
	} else {
		opts.SetUpsert(true)
	}

	var rec models.UserRecord
	err = col.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"warnPoints": delta}}, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, moderation.InvalidOperation(moderation.ErrNegativePoints, "Not enough points to remove %d.", -delta)
		}
		return 0, errors.WrapIfWithDetails(err, "apply point delta", "user", userID)
	}
	return rec.WarnPoints, nil
}

func (r *UserRecords) CurrentTotal(ctx context.Context, guildID, userID string) (int, error) {
	rec, err := r.Record(ctx, guildID, userID)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.WarnPoints, nil
}

func (r *UserRecords) MarkWarnKicked(ctx context.Context, guildID, userID string) error {
	col, err := r.col()
	if err != nil {
		return err
	}
	_, err = col.UpdateOne(ctx, userFilter(guildID, userID),
		bson.M{"$set": bson.M{"wasWarnKicked": true}},
		options.Update().SetUpsert(true))
	return errors.WrapIf(err, "mark warn kicked")
}

func (r *UserRecords) WasWarnKicked(ctx context.Context, guildID, userID string) (bool, error) {
	rec, err := r.Record(ctx, guildID, userID)
	if err != nil || rec == nil {
		return false, err
	}
	return rec.WasWarnKicked, nil
}

// SetMuted is a compare-and-set on isMuted. Muting upserts; the unique
// (guildId, userId) index turns a lost race into "unchanged".
func (r *UserRecords) SetMuted(ctx context.Context, guildID, userID string, muted bool, until *time.Time) (bool, error) {
	col, err := r.col()
	if err != nil {
		return false, err
	}

	filter := userFilter(guildID, userID)
	var update bson.M
	opts := options.Update()
	if muted {
		filter["isMuted"] = bson.M{"$ne": true}
		set := bson.M{"isMuted": true}
		if until != nil {
			set["muteUntil"] = until.UTC()
		}
		update = bson.M{"$set": set}
		if until == nil {
			update["$unset"] = bson.M{"muteUntil": ""}
		}
		opts.SetUpsert(true)
	} else {
		filter["isMuted"] = true
		update = bson.M{"$set": bson.M{"isMuted": false}, "$unset": bson.M{"muteUntil": ""}}
	}

	res, err := col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, errors.WrapIfWithDetails(err, "set muted", "user", userID)
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0, nil
}

func (r *UserRecords) Record(ctx context.Context, guildID, userID string) (*models.UserRecord, error) {
	col, err := r.col()
	if err != nil {
		return nil, err
	}
	var rec models.UserRecord
	if err := col.FindOne(ctx, userFilter(guildID, userID)).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.WrapIfWithDetails(err, "find user record", "user", userID)
	}
	return &rec, nil
}

func (r *UserRecords) MutedUsers(ctx context.Context) ([]*models.UserRecord, error) {
	col, err := r.col()
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, bson.M{"isMuted": true})
	if err != nil {
		return nil, errors.WrapIf(err, "find muted users")
	}
	var recs []*models.UserRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, errors.WrapIf(err, "decode muted users")
	}
	return recs, nil
}
