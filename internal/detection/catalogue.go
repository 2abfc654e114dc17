package detection

// defaultSafetyKeywords is the built-in safety keyword catalogue
// (case-insensitive matching). The catalogue is merged with user-configured
// custom keywords into a KeywordSet; duplicates are dropped at that point.
var defaultSafetyKeywords = []string{
	// Emergency distress words (English)
	"help", "help me", "save me", "danger", "emergency", "urgent", "scared", "afraid", "terrified",
	"panic", "trapped", "stuck", "lost", "alone", "vulnerable", "unsafe", "threatened", "intimidated",

	// Hindi/Hinglish emergency words
	"bachao", "bacha lo", "madad", "khatara", "dar lag raha hai", "please help",

	// Physical threats and violence
	"attack", "attacking", "attacker", "assault", "assaulting", "hit", "hitting", "beat", "beating",
	"punch", "punching", "kick", "kicking", "grab", "grabbing", "push", "pushing", "shove", "shoving",
	"hurt", "hurting", "pain", "bleeding", "injured", "wound", "bruise", "violence", "violent",
	"abuse", "abusing", "harass", "harassment", "molest", "molestation", "rape", "sexual assault",
	"domestic violence", "stalking", "stalker", "following", "watching me",

	// Death threats and life-threatening situations
	"die", "dying", "death", "kill", "killing", "murder", "dead", "suffocate", "choke", "choking",
	"strangle", "strangling", "poison", "poisoning", "overdose", "suicide", "suicidal",

	// Kidnapping and abduction
	"kidnap", "kidnapping", "abduct", "abduction", "taken", "forced", "drag", "dragging",
	"car", "van", "trunk", "basement", "locked", "tied", "bound", "captive", "prisoner",

	// Weapon-related
	"gun", "knife", "weapon", "armed", "shoot", "shooting", "shot", "stab", "stabbing",
	"blade", "pistol", "rifle", "firearm", "bomb", "explosive",

	// Medical emergencies
	"medical emergency", "heart attack", "stroke", "seizure", "unconscious", "faint", "fainting",
	"overdose", "allergic reaction", "can't breathe", "breathing problems", "chest pain",

	// Location-based safety concerns
	"dark alley", "abandoned", "deserted", "isolated", "empty street", "parking garage",
	"following me home", "stranger danger", "suspicious person", "creepy guy",

	// Emotional distress indicators
	"crying", "sobbing", "screaming", "yelling", "shouting", "please stop", "leave me alone",
	"get away", "don't touch me", "no means no", "stop it", "quit it",

	// Communication keywords
	"call police", "call 911", "call emergency", "need ambulance", "need help now",
	"send help", "contact family", "notify emergency contact", "trace my location",
}

// DefaultKeywordCount returns the number of distinct phrases in the built-in
// catalogue.
func DefaultKeywordCount() int {
	return NewKeywordSet().Len()
}
