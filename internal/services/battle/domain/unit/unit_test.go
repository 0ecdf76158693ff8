package unit

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSideOpposite(t *testing.T) {
	if Offense.Opposite() != Defense || Defense.Opposite() != Offense {
		t.Fatal("opposite sides do not mirror")
	}
}

func TestSideTextRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[Side]int{Offense: 1, Defense: 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"defense":2,"offense":1}` {
		t.Fatalf("json = %s", data)
	}
	var decoded map[Side]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[Offense] != 1 || decoded[Defense] != 2 {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestParseSideRejectsUnknown(t *testing.T) {
	if _, err := ParseSide("neutral"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFlagsSerializeSorted(t *testing.T) {
	flags := NewFlags(Sea, CanNotBeTargetedByAll, CanEvade)
	data, err := json.Marshal(flags)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["can_evade","can_not_be_targeted_by_all","sea"]` {
		t.Fatalf("json = %s", data)
	}
	var decoded Flags
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != flags {
		t.Fatalf("flags = %v, want %v", decoded.Names(), flags.Names())
	}
}

func TestParseFlagsUnknown(t *testing.T) {
	if _, err := ParseFlags([]string{"air", "laser"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCanHit(t *testing.T) {
	sub := Unit{ID: "sub", Side: Offense, Flags: NewFlags(Sea, CannotTargetAir), Attack: 2}
	fighter := Unit{ID: "f", Side: Defense, Flags: NewFlags(Air), Defense: 4}
	ship := Unit{ID: "s", Side: Defense, Flags: NewFlags(Sea), Defense: 1}
	aa := Unit{ID: "aa", Side: Defense, Flags: NewFlags(AntiAirGun, Infrastructure), AntiAir: 1}

	tests := []struct {
		name    string
		shooter Unit
		target  Unit
		want    bool
	}{
		{name: "sub vs air", shooter: sub, target: fighter, want: false},
		{name: "sub vs ship", shooter: sub, target: ship, want: true},
		{name: "same side", shooter: sub, target: Unit{Side: Offense}, want: false},
		{name: "infrastructure", shooter: sub, target: aa, want: false},
	}
	for _, tt := range tests {
		if got := tt.shooter.CanHit(tt.target); got != tt.want {
			t.Fatalf("%s: CanHit = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStrengthAndSuicideFollowSide(t *testing.T) {
	u := Unit{Attack: 3, Defense: 1, Flags: NewFlags(SuicideOnAttack)}
	u.Side = Offense
	if u.Strength() != 3 || !u.Suicide() {
		t.Fatalf("offense strength = %d suicide = %v", u.Strength(), u.Suicide())
	}
	u.Side = Defense
	if u.Strength() != 1 || u.Suicide() {
		t.Fatalf("defense strength = %d suicide = %v", u.Strength(), u.Suicide())
	}
}

func TestIDs(t *testing.T) {
	got := IDs([]Unit{{ID: "a"}, {ID: "b"}})
	if !reflect.DeepEqual(got, []ID{"a", "b"}) {
		t.Fatalf("ids = %v", got)
	}
}
