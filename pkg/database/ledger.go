package database

import (
	"context"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// CaseLedger stores cases in the cases collection. Ids come from a per
// guild counter document incremented atomically.
type CaseLedger struct {
	db *Database
}

var _ moderation.Ledger = (*CaseLedger)(nil)

// NewCaseLedger creates a ledger on db
func NewCaseLedger(db *Database) *CaseLedger {
	return &CaseLedger{db: db}
}

func (l *CaseLedger) col(name string) (*mongo.Collection, error) {
	if !l.db.Connected() {
		return nil, ErrNotConnected
	}
	col := l.db.GetCollection(name)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

func caseFilter(guildID, userID string, caseID int64) bson.M {
	return bson.M{"guildId": guildID, "userId": userID, "caseId": caseID}
}

func (l *CaseLedger) NextCaseID(ctx context.Context, guildID string) (int64, error) {
	col, err := l.col(CountersCollection)
	if err != nil {
		return 0, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		CaseID int64 `bson:"caseId"`
	}
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": guildID}, bson.M{"$inc": bson.M{"caseId": 1}}, opts).Decode(&counter)
	if err != nil {
		return 0, errors.WrapIfWithDetails(err, "increment case counter", "guild", guildID)
	}
	return counter.CaseID, nil
}

func (l *CaseLedger) Append(ctx context.Context, guildID, userID string, c *models.Case) error {
	col, err := l.col(CasesCollection)
	if err != nil {
		return err
	}

	doc := c.Clone()
	doc.GuildID, doc.TargetUserID = guildID, userID
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return moderation.Conflict(moderation.ErrDuplicateCase, "Case #%d already exists.", c.ID)
		}
		return errors.WrapIfWithDetails(err, "insert case", "case", c.ID)
	}
	return nil
}

func (l *CaseLedger) GetCase(ctx context.Context, guildID, userID string, caseID int64) (*models.Case, error) {
	col, err := l.col(CasesCollection)
	if err != nil {
		return nil, err
	}

	var c models.Case
	if err := col.FindOne(ctx, caseFilter(guildID, userID, caseID)).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, moderation.NotFound(moderation.ErrCaseNotFound, "Case #%d not found.", caseID)
		}
		return nil, errors.WrapIfWithDetails(err, "find case", "case", caseID)
	}
	return &c, nil
}

func (l *CaseLedger) UpdateCase(ctx context.Context, guildID, userID string, c *models.Case) error {
	col, err := l.col(CasesCollection)
	if err != nil {
		return err
	}

	doc := c.Clone()
	doc.GuildID, doc.TargetUserID = guildID, userID
	res, err := col.ReplaceOne(ctx, caseFilter(guildID, userID, c.ID), doc)
	if err != nil {
		return errors.WrapIfWithDetails(err, "replace case", "case", c.ID)
	}
	if res.MatchedCount == 0 {
		return moderation.NotFound(moderation.ErrCaseNotFound, "Case #%d not found.", c.ID)
	}
	return nil
}

func (l *CaseLedger) ListCases(ctx context.Context, guildID, userID string) ([]*models.Case, error) {
	col, err := l.col(CasesCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "caseId", Value: 1}})
	cursor, err := col.Find(ctx, bson.M{"guildId": guildID, "userId": userID}, opts)
	if err != nil {
		return nil, errors.WrapIf(err, "find cases")
	}

	var cases []*models.Case
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, errors.WrapIf(err, "decode cases")
	}
	return cases, nil
}
