package mod

import (
	"github.com/bwmarrin/discordgo"
)

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

func reasonOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason shown in the case and to the user",
		Required:    required,
		MaxLength:   1000,
	}
}

func pointsOption(description string) *discordgo.ApplicationCommandOption {
	minPoints := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "points",
		Description: description,
		Required:    true,
		MinValue:    &minPoints,
	}
}

func caseOption() *discordgo.ApplicationCommandOption {
	minID := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "case",
		Description: "Case number",
		Required:    true,
		MinValue:    &minID,
	}
}
