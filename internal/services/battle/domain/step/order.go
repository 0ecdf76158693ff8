package step

// Tags of every catalog entry.
const (
	OffenseAAFire             Tag = "offense.aa.fire"
	DefenseAASelectCasualties Tag = "defense.aa.select_casualties"
	DefenseAAFire             Tag = "defense.aa.fire"
	OffenseAASelectCasualties Tag = "offense.aa.select_casualties"
	AARemoveCasualties        Tag = "aa.remove_casualties"

	OffenseBombardFire             Tag = "offense.bombard.fire"
	DefenseBombardSelectCasualties Tag = "defense.bombard.select_casualties"
	BombardRemoveCasualties        Tag = "bombard.remove_casualties"

	RemoveUnprotectedUnits      Tag = "remove_unprotected_units"
	SubmergeSubsVsOnlyAir       Tag = "submerge_subs_vs_only_air"
	OffenseSubmergeBeforeBattle Tag = "offense.submerge_before_battle"
	DefenseSubmergeBeforeBattle Tag = "defense.submerge_before_battle"
	OffenseAirCannotHitEvaders  Tag = "offense.air_cannot_hit_evaders"
	DefenseAirCannotHitEvaders  Tag = "defense.air_cannot_hit_evaders"

	OffenseFirstStrikeFire             Tag = "offense.first_strike.fire"
	DefenseFirstStrikeSelectCasualties Tag = "defense.first_strike.select_casualties"
	DefenseFirstStrikeFire             Tag = "defense.first_strike.fire"
	OffenseFirstStrikeSelectCasualties Tag = "offense.first_strike.select_casualties"
	FirstStrikeRemoveCasualties        Tag = "first_strike.remove_casualties"
	RemoveFirstStrikeSuicide           Tag = "remove_first_strike_suicide"

	OffenseGeneralFire             Tag = "offense.general.fire"
	DefenseGeneralSelectCasualties Tag = "defense.general.select_casualties"
	DefenseGeneralFire             Tag = "defense.general.fire"
	OffenseGeneralSelectCasualties Tag = "offense.general.select_casualties"
	GeneralRemoveCasualties        Tag = "general.remove_casualties"
	RemoveGeneralSuicide           Tag = "remove_general_suicide"

	OffenseSubmergeAfterBattle Tag = "offense.submerge_after_battle"
	OffenseRetreat             Tag = "offense.retreat"
	DefenseSubmergeAfterBattle Tag = "defense.submerge_after_battle"

	EndRound Tag = "end_round"
)

// priority is the total order of a round. Lower runs first. It is kept
// apart from step logic so the sequence can be read and tested on its own.
var priority = map[Tag]int{
	OffenseAAFire:             100,
	DefenseAASelectCasualties: 101,
	DefenseAAFire:             110,
	OffenseAASelectCasualties: 111,
	AARemoveCasualties:        120,

	OffenseBombardFire:             200,
	DefenseBombardSelectCasualties: 201,
	BombardRemoveCasualties:        202,

	RemoveUnprotectedUnits:      300,
	SubmergeSubsVsOnlyAir:       310,
	OffenseSubmergeBeforeBattle: 320,
	DefenseSubmergeBeforeBattle: 321,
	OffenseAirCannotHitEvaders:  400,
	DefenseAirCannotHitEvaders:  401,

	OffenseFirstStrikeFire:             410,
	DefenseFirstStrikeSelectCasualties: 411,
	DefenseFirstStrikeFire:             420,
	OffenseFirstStrikeSelectCasualties: 421,
	FirstStrikeRemoveCasualties:        430,
	RemoveFirstStrikeSuicide:           440,

	OffenseGeneralFire:             500,
	DefenseGeneralSelectCasualties: 501,
	DefenseGeneralFire:             510,
	OffenseGeneralSelectCasualties: 511,
	GeneralRemoveCasualties:        520,
	RemoveGeneralSuicide:           530,

	OffenseSubmergeAfterBattle: 600,
	OffenseRetreat:             610,
	DefenseSubmergeAfterBattle: 620,

	EndRound: 1000,
}

// Order returns the priority of tag, and false for unknown tags.
func Order(tag Tag) (int, bool) {
	order, ok := priority[tag]
	return order, ok
}
