package database

import (
	"context"

	"emperror.dev/errors"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// GuildSettingsStore serves guild configuration through a cached
// DataManager.
type GuildSettingsStore struct {
	dm *DataManager[models.GuildConfig]
}

var _ moderation.GuildSettings = (*GuildSettingsStore)(nil)

// NewGuildSettingsStore creates the settings store on db
func NewGuildSettingsStore(db *Database) *GuildSettingsStore {
	return &GuildSettingsStore{dm: NewDataManager[models.GuildConfig](GuildsCollection, db)}
}

func guildQuery(guildID string) bson.M {
	return bson.M{"guildId": guildID}
}

func copyConfig(g *models.GuildConfig) *models.GuildConfig {
	cp := *g
	cp.LockedChannels = append([]string(nil), g.LockedChannels...)
	return &cp
}

// GuildConfig falls back to an empty configuration while offline
func (s *GuildSettingsStore) GuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	cfg, err := s.dm.Get(ctx, guildQuery(guildID))
	if errors.Is(err, ErrNotConnected) {
		logger.Warn("DB offline, usando configuración vacía para "+guildID, "GuildSettings")
		return &models.GuildConfig{GuildID: guildID}, nil
	}
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "load guild settings", "guild", guildID)
	}
	if cfg == nil {
		return &models.GuildConfig{GuildID: guildID}, nil
	}
	return copyConfig(cfg), nil
}

func (s *GuildSettingsStore) UpdateGuildConfig(ctx context.Context, cfg *models.GuildConfig) error {
	_, err := s.dm.Set(ctx, guildQuery(cfg.GuildID), copyConfig(cfg))
	return err
}

func (s *GuildSettingsStore) AddLockedChannel(ctx context.Context, guildID, channelID string) (bool, error) {
	cfg, err := s.dm.Update(ctx, guildQuery(guildID),
		bson.M{"lockedChannels": bson.M{"$ne": channelID}},
		bson.M{"$push": bson.M{"lockedChannels": channelID}},
		true)
	if err != nil {
		return false, errors.WrapIf(err, "add locked channel")
	}
	return cfg != nil, nil
}

func (s *GuildSettingsStore) RemoveLockedChannel(ctx context.Context, guildID, channelID string) (bool, error) {
	cfg, err := s.dm.Update(ctx, guildQuery(guildID),
		bson.M{"lockedChannels": channelID},
		bson.M{"$pull": bson.M{"lockedChannels": channelID}},
		false)
	if err != nil {
		return false, errors.WrapIf(err, "remove locked channel")
	}
	return cfg != nil, nil
}
