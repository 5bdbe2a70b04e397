package combat

import "testing"

func TestLedger_KillOnce(t *testing.T) {
	l := NewLedger()
	hp := 15.0
	if l.Hit(1, &hp, 10) {
		t.Fatalf("killed at hp=%v", hp)
	}
	if !l.Hit(1, &hp, 10) {
		t.Fatalf("expected kill")
	}
	if l.Hit(1, &hp, 10) {
		t.Fatalf("second kill reported")
	}
	if hp != -5 {
		t.Fatalf("dead enemy kept taking damage: hp=%v", hp)
	}
	l.Forget(func(uint64) bool { return false })
	if l.Dead(1) {
		t.Fatalf("forget did not drop id")
	}
}

func TestFlightMS(t *testing.T) {
	if FlightMS(100) != 50 || FlightMS(5000) != 500 {
		t.Fatalf("flight time wrong")
	}
}
