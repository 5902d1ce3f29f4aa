package catalog

import "github.com/aretw0/onboard/pkg/domain"

// Default returns the built-in onboarding flow.
func Default() *Catalog {
	c, err := New(DefaultStages()...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultStages returns the built-in stage definitions.
func DefaultStages() []domain.Stage {
	return []domain.Stage{
		{
			ID:     domain.StageManufacturer,
			Label:  "Organization",
			Icon:   "🏭",
			Order:  10,
			Prompt: "Let's start with your organization. What is the company name? You can also upload a file with several organizations.",
			Choices: []domain.Choice{
				upload(domain.StageManufacturer, "Upload organizations file"),
				skip(domain.StageManufacturer),
				manual(),
			},
			Import:     domain.ImportOrganizations,
			Applicable: func(sc domain.SessionContext) bool { return sc.ActorRole != domain.RoleOrgAdmin },
		},
		{
			ID:     domain.StageTeam,
			Label:  "Team",
			Icon:   "👥",
			Order:  20,
			Prompt: "Who else should join? Invite your team by typing their details or upload a members file.",
			Choices: []domain.Choice{
				domain.Action{Kind: domain.ActionInviteTeam}.Choice("Invite team members"),
				upload(domain.StageTeam, "Upload members file"),
				skip(domain.StageTeam),
				manual(),
			},
			Import: domain.ImportTeamMembers,
		},
		importStage(domain.StageEquipment, "Equipment", "🛠️", 30, domain.ImportEquipment,
			"Now your equipment catalog. Upload a CSV with the equipment you service."),
		importStage(domain.StageParts, "Parts", "🔩", 40, domain.ImportParts,
			"Next, spare parts. Upload a CSV with your parts catalog."),
		importStage(domain.StageEngineers, "Engineers", "🧑‍🔧", 50, domain.ImportEngineers,
			"Let's add your field engineers. Upload a CSV with their details."),
		importStage(domain.StageInstallations, "Installations", "📍", 60, domain.ImportInstallations,
			"Finally, installations. Upload a CSV with the sites where equipment is installed."),
		{
			ID:     domain.StageReview,
			Label:  "Review",
			Icon:   "✅",
			Order:  70,
			Prompt: "That's everything. Review what we collected and complete the setup when you're ready.",
			Choices: []domain.Choice{
				domain.Action{Kind: domain.ActionComplete}.Choice("Complete setup"),
			},
		},
	}
}

func importStage(id domain.StageID, label, icon string, order int, kind domain.ImportKind, prompt string) domain.Stage {
	return domain.Stage{
		ID:     id,
		Label:  label,
		Icon:   icon,
		Order:  order,
		Prompt: prompt,
		Choices: []domain.Choice{
			upload(id, "Upload file"),
			skip(id),
			manual(),
		},
		Import: kind,
	}
}

func upload(id domain.StageID, label string) domain.Choice {
	return domain.StageAction(domain.ActionUpload, id).Choice(label)
}

func skip(id domain.StageID) domain.Choice {
	return domain.StageAction(domain.ActionSkip, id).Choice("Skip for now")
}

func manual() domain.Choice {
	return domain.Action{Kind: domain.ActionManual}.Choice("Enter manually")
}
