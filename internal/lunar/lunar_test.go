package lunar

import (
	"testing"
	"time"
)

func TestCalculateIsDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 15, 8, 30, 0, 0, time.Local)

	first := Calculate(date)
	for i := 0; i < 10; i++ {
		if got := Calculate(date); got != first {
			t.Fatalf("expected stable phase %s, got %s on call %d", first, got, i)
		}
	}
}

func TestCalculateIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 7, 2, 0, 1, 0, 0, time.Local)
	evening := time.Date(2024, 7, 2, 23, 59, 0, 0, time.Local)

	if Calculate(morning) != Calculate(evening) {
		t.Fatalf("same calendar date should map to the same phase")
	}
}

func TestCalculateReferenceNewMoon(t *testing.T) {
	// 参考历元当天必须是新月
	ref := time.Date(2000, 1, 6, 9, 0, 0, 0, time.Local)
	if got := Calculate(ref); got != PhaseNew {
		t.Fatalf("expected new moon at reference epoch, got %s", got)
	}
}

func TestCalculateAdjacentDaysStayAdjacent(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.Local)

	prev := Calculate(start)
	for day := 1; day <= 120; day++ {
		current := Calculate(start.AddDate(0, 0, day))
		if current == prev {
			continue
		}

		prevIdx := Index(prev)
		currIdx := Index(current)
		if prevIdx < 0 || currIdx < 0 {
			t.Fatalf("unknown phase in sequence: %s -> %s", prev, current)
		}
		if (prevIdx+1)%len(phaseOrder) != currIdx {
			t.Fatalf("day %d jumped from %s to %s", day, prev, current)
		}
		prev = current
	}
}

func TestCalculateCoversFullCycle(t *testing.T) {
	seen := make(map[Phase]bool)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	for day := 0; day < 31; day++ {
		seen[Calculate(start.AddDate(0, 0, day))] = true
	}

	if len(seen) != 8 {
		t.Fatalf("expected all 8 phases within one synodic month, saw %d", len(seen))
	}
}

func TestInfoFallsBackToNewMoon(t *testing.T) {
	if Info(Phase("nonsense")).CnName != "新月" {
		t.Fatalf("unknown phase should fall back to new moon info")
	}

	if Info(PhaseFull).CnName != "满月" {
		t.Fatalf("unexpected full moon info: %+v", Info(PhaseFull))
	}
}
