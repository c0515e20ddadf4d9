package match

import (
	"encoding/json"
	"testing"
)

func TestStageString(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{Pick(), "Pick"},
		{FirstHalf(Prepare), "FirstHalf(Prepare)"},
		{FirstHalf(Run), "FirstHalf(Run)"},
		{SecondHalf(Cleared), "SecondHalf(Cleared)"},
		{Finished(), "Finished"},
		{GameOver(), "GameOver"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.stage.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			back, err := ParseStage(tt.want)
			if err != nil {
				t.Fatalf("ParseStage() error = %v", err)
			}
			if back != tt.stage {
				t.Errorf("ParseStage() = %v, want %v", back, tt.stage)
			}
		})
	}
}

func TestParseStageRejects(t *testing.T) {
	for _, in := range []string{"", "Lobby", "FirstHalf", "FirstHalf(Run", "FirstHalf(Idle)", "Pick(Run)"} {
		if _, err := ParseStage(in); err == nil {
			t.Errorf("ParseStage(%q) error = nil", in)
		}
	}
}

func TestStageJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Stage{"stage": SecondHalf(Run)})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"stage":"SecondHalf(Run)"}` {
		t.Errorf("Marshal = %s", data)
	}
	var back map[string]Stage
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back["stage"] != SecondHalf(Run) {
		t.Errorf("Unmarshal = %v", back["stage"])
	}
}

func TestHalfZeroValueIsPrepare(t *testing.T) {
	if FirstHalf(Prepare) != (Stage{Phase: PhaseFirstHalf}) {
		t.Error("FirstHalf(Prepare) is not the zero half")
	}
}
