package automation

import "testing"

func TestOrder(t *testing.T) {
	want := []State{
		IsUncalibrated,
		IsCalibrated,
		DrivingToTargetEntryCoordinate,
		AtEntryCoordinate,
		AtDuraInsert,
		DrivingToNearTarget,
		AtNearTargetInsert,
		DrivingToPastTarget,
		AtPastTarget,
		ReturningToTarget,
		AtTarget,
		ExitingToNearTarget,
		AtNearTargetExit,
		ExitingToDura,
		AtDuraExit,
		ExitingToMargin,
		AtExitMargin,
		ExitingToTargetEntryCoordinate,
	}

	got := Order()
	if len(got) != len(want) {
		t.Fatalf("len(Order()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Order()[%d] = %s, want %s", i, got[i], want[i])
		}
		if got[i].Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", got[i], got[i].Rank(), i)
		}
	}
}

func TestOrderReturnsCopy(t *testing.T) {
	got := Order()
	got[0] = AtTarget

	if Order()[0] != IsUncalibrated {
		t.Error("mutating Order() result changed the declared order")
	}
}

func TestStateComparisons(t *testing.T) {
	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"uncalibrated before calibrated", IsUncalibrated.Before(IsCalibrated), true},
		{"target after past target", AtTarget.After(AtPastTarget), true},
		{"margin at or after itself", AtExitMargin.AtOrAfter(AtExitMargin), true},
		{"dura insert not after dura exit", AtDuraInsert.After(AtDuraExit), false},
		{"target between dura insert and dura exit", AtTarget.Between(AtDuraInsert, AtDuraExit), true},
		{"entry coordinate outside cycle range", AtEntryCoordinate.Between(AtDuraInsert, ExitingToTargetEntryCoordinate), false},
		{"unknown state never between", State("bogus").Between(IsUncalibrated, ExitingToTargetEntryCoordinate), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, s := range Order() {
		got, err := ParseState(string(s))
		if err != nil {
			t.Errorf("ParseState(%q) unexpected error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseState(%q) = %s", s, got)
		}
	}

	if _, err := ParseState("AtTarget"); err == nil {
		t.Error("ParseState(\"AtTarget\") expected error for non-persisted name")
	}
	if got := State("bogus").Rank(); got != -1 {
		t.Errorf("unknown state Rank() = %d, want -1", got)
	}
}

func TestDrivingAndExitingStates(t *testing.T) {
	driving := map[State]bool{
		DrivingToTargetEntryCoordinate: true,
		DrivingToNearTarget:            true,
		DrivingToPastTarget:            true,
		ReturningToTarget:              true,
	}
	exiting := map[State]bool{
		ExitingToNearTarget:            true,
		ExitingToDura:                  true,
		ExitingToMargin:                true,
		ExitingToTargetEntryCoordinate: true,
	}

	for _, s := range Order() {
		if got := IsDrivingState(s); got != driving[s] {
			t.Errorf("IsDrivingState(%s) = %v, want %v", s, got, driving[s])
		}
		if got := IsExitingState(s); got != exiting[s] {
			t.Errorf("IsExitingState(%s) = %v, want %v", s, got, exiting[s])
		}
	}
}
