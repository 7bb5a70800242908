package safety

import (
	"fmt"
	"testing"

	"missioncore/robot"
)

type mockProbe struct {
	status    *robot.Status
	statusErr error
	bins      map[string]bool
	binErr    error
}

func (m *mockProbe) GetStatus() (*robot.Status, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}

func (m *mockProbe) GetBinState(pointID string) (*robot.BinState, error) {
	if m.binErr != nil {
		return nil, m.binErr
	}
	return &robot.BinState{Point: pointID, Occupied: m.bins[pointID]}, nil
}

func TestCheckRobotReady(t *testing.T) {
	il := New(&mockProbe{status: &robot.Status{}})
	if err := il.CheckRobotReady(); err != nil {
		t.Errorf("idle robot should pass pre-flight: %v", err)
	}
}

func TestCheckRobotReadyEmergencyStop(t *testing.T) {
	il := New(&mockProbe{status: &robot.Status{Emergency: true}})
	err := il.CheckRobotReady()
	a, ok := AsAbort(err)
	if !ok {
		t.Fatalf("expected abort, got %v", err)
	}
	if a.Code != CodeEmergencyStop {
		t.Errorf("code = %s, want %s", a.Code, CodeEmergencyStop)
	}
}

func TestCheckRobotReadyCharging(t *testing.T) {
	il := New(&mockProbe{status: &robot.Status{Charging: true}})
	err := il.CheckRobotReady()
	a, ok := AsAbort(err)
	if !ok {
		t.Fatalf("expected abort, got %v", err)
	}
	if a.Code != CodeRobotCharging {
		t.Errorf("code = %s, want %s", a.Code, CodeRobotCharging)
	}
}

func TestCheckRobotReadyEmergencyBeforeCharging(t *testing.T) {
	// Both conditions hold; emergency stop wins.
	il := New(&mockProbe{status: &robot.Status{Emergency: true, Charging: true}})
	err := il.CheckRobotReady()
	a, ok := AsAbort(err)
	if !ok {
		t.Fatalf("expected abort, got %v", err)
	}
	if a.Code != CodeEmergencyStop {
		t.Errorf("code = %s, want %s", a.Code, CodeEmergencyStop)
	}
}

func TestCheckRobotReadyProbeError(t *testing.T) {
	il := New(&mockProbe{statusErr: fmt.Errorf("connection refused")})
	err := il.CheckRobotReady()
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := AsAbort(err); ok {
		t.Error("probe error must not be an abort")
	}
}

func TestIsBinPresent(t *testing.T) {
	il := New(&mockProbe{bins: map[string]bool{"3_load": true}})

	present, err := il.IsBinPresent("3_load")
	if err != nil || !present {
		t.Errorf("3_load: present=%v err=%v, want true", present, err)
	}
	present, err = il.IsBinPresent("4_load")
	if err != nil || present {
		t.Errorf("4_load: present=%v err=%v, want false", present, err)
	}
}

func TestIsBinPresentSensorError(t *testing.T) {
	il := New(&mockProbe{binErr: fmt.Errorf("sensor timeout")})
	if _, err := il.IsBinPresent("3_load"); err == nil {
		t.Fatal("sensor error must propagate, not default to a reading")
	}
}

func TestParseBinPolicy(t *testing.T) {
	if ParseBinPolicy("degrade") != BinPolicyDegrade {
		t.Error("degrade not recognized")
	}
	if ParseBinPolicy("abort") != BinPolicyAbort {
		t.Error("abort not recognized")
	}
	if ParseBinPolicy("bogus") != BinPolicyAbort {
		t.Error("unknown policy must fall back to abort")
	}
}

func TestDecideBins(t *testing.T) {
	cases := []struct {
		name     string
		policy   BinPolicy
		pickup   bool
		dropoff  bool
		want     BinDecision
		wantCode string
	}{
		{"abort normal", BinPolicyAbort, true, false, BinProceed, ""},
		{"abort no pickup bin", BinPolicyAbort, false, false, 0, CodeNoActionPossible},
		{"abort dropoff occupied", BinPolicyAbort, true, true, 0, CodeDropoffOccupied},
		{"abort both wrong", BinPolicyAbort, false, true, 0, CodeNoActionPossible},
		{"degrade normal", BinPolicyDegrade, true, false, BinProceed, ""},
		{"degrade no pickup bin", BinPolicyDegrade, false, false, BinSkipTransport, ""},
		{"degrade no pickup dropoff occupied", BinPolicyDegrade, false, true, BinSkipTransport, ""},
		{"degrade dropoff occupied", BinPolicyDegrade, true, true, 0, CodeDropoffOccupied},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := DecideBins(c.policy, c.pickup, c.dropoff)
			if c.wantCode != "" {
				a, ok := AsAbort(err)
				if !ok {
					t.Fatalf("expected abort, got %v", err)
				}
				if a.Code != c.wantCode {
					t.Errorf("code = %s, want %s", a.Code, c.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("decision = %v, want %v", got, c.want)
			}
		})
	}
}
