package lobby

import "github.com/muyan2020/matchparty/internal/domain"

type npcEntry struct {
	meta    NPCMeta
	profile *domain.Profile
}

// npcPool is the canned persona library. NPCs take the principal roles; the
// accompanying parent persona lives in the metadata.
var npcPool = []npcEntry{
	{
		meta: NPCMeta{
			ID:          "npc_alex",
			ParentName:  "Alex's father",
			ParentStyle: "A professor type: precise in speech, but quietly eager to see his son settle down.",
		},
		profile: &domain.Profile{
			Role:          domain.RolePrincipalA,
			DisplayName:   "Alex",
			Age:           28,
			Occupation:    "Machine-learning engineer",
			Hobbies:       "Skiing, poker nights, two very spoiled cats, wandering tech expos on weekends",
			FamilyOutlook: "Parents are both university professors; the household is open-minded, with only the occasional pointed hint about marriage",
			Expectation:   "Someone with their own passions and an independent streak, who won't mind the odd late night at work",
			Extra:         "Self-described logic-first type who is learning to cook and, slowly, to flirt",
			AvatarURL:     "images/npc-alex.png",
		},
	},
	{
		meta: NPCMeta{
			ID:          "npc_daniel",
			ParentName:  "Daniel's mother",
			ParentStyle: "Gentle and supportive, worries about his unsteady income but respects his choices.",
		},
		profile: &domain.Profile{
			Role:          domain.RolePrincipalA,
			DisplayName:   "Daniel",
			Age:           30,
			Occupation:    "Documentary filmmaker and freelance writer",
			Hobbies:       "Filming, cycling, independent bookshops, collecting vinyl",
			FamilyOutlook: "Raised by his mother, a schoolteacher; the two are very close",
			Expectation:   "Someone to really talk with; shared wavelength matters far more than material comfort",
			Extra:         "Looks aloof, is actually soft-hearted; his feed is all sunset photographs",
		},
	},
	{
		meta: NPCMeta{
			ID:          "npc_luna",
			ParentName:  "Luna's mother",
			ParentStyle: "Warm and chatty, will ask whether you've eaten before asking anything else.",
		},
		profile: &domain.Profile{
			Role:          domain.RolePrincipalB,
			DisplayName:   "Luna",
			Age:           26,
			Occupation:    "Freelance illustrator and curator",
			Hobbies:       "Gallery-hopping, baking, vinyl records, a corgi named Bun",
			FamilyOutlook: "A warm household of teachers that cooks together every weekend",
			Expectation:   "A gentle person with a bit of an eye for art and real enthusiasm for everyday life",
			Extra:         "Once she starts talking she can't stop; laughs at everything",
			AvatarURL:     "images/npc-luna.png",
		},
	},
	{
		meta: NPCMeta{
			ID:          "npc_claire",
			ParentName:  "Claire's father",
			ParentStyle: "A stern doctor who questions people like he's doing ward rounds, and adores his daughter.",
		},
		profile: &domain.Profile{
			Role:          domain.RolePrincipalB,
			DisplayName:   "Claire",
			Age:           29,
			Occupation:    "Cardiology resident at a teaching hospital",
			Hobbies:       "Yoga, mystery novels, journaling, the occasional drama binge",
			FamilyOutlook: "Both parents are physicians; a disciplined but not rigid family that respects her independence",
			Expectation:   "Someone who understands hospital shifts and forgives the occasional cancelled date",
			Extra:         "Cool on the surface, champion complainer in private; her phone wallpaper is her cat",
		},
	},
}
