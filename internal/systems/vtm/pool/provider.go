package pool

// Track names a sheet value the composer reads.
type Track string

const (
	TrackWillpower Track = "willpower"
	TrackHumanity  Track = "humanity"
	TrackHealth    Track = "health"
)

// Impairment names a track whose damage penalises rolls.
type Impairment string

const (
	ImpairedHealth    Impairment = "health"
	ImpairedWillpower Impairment = "willpower"
	ImpairedHumanity  Impairment = "humanity"
)

// TraitValueProvider reads trait dots and track state from a character
// sheet. Unknown names read as zero. TrackValue reports the unspent boxes of
// Health and Willpower and the current value of Humanity.
type TraitValueProvider interface {
	Attribute(name string) int
	Skill(name string) int
	Discipline(name string) int
	TrackValue(track Track) int
	Impaired(kind Impairment) bool
	BloodPotency() int
	HungerDots() int
}
