package service

import (
	"math"
	"testing"
)

// runUntil 以 60fps 推进引擎直到条件满足，防止死循环设置步数上限。
func runUntil(t *testing.T, e *CarouselEngine, maxFrames int, cond func() bool) {
	t.Helper()
	for i := 0; i < maxFrames; i++ {
		if cond() {
			return
		}
		e.Tick(1.0 / 60.0)
	}
	if !cond() {
		t.Fatalf("condition not reached within %d frames (state=%s rotation=%.2f)",
			maxFrames, e.State(), e.Rotation())
	}
}

func TestCarouselIdleDrift(t *testing.T) {
	e := NewCarouselEngine()

	before := e.Rotation()
	e.Tick(1.0 / 60.0)
	after := e.Rotation()

	if e.State() != CarouselIdle {
		t.Fatalf("idle must not self-transition, got %s", e.State())
	}
	if after <= before {
		t.Fatalf("idle drift should advance rotation: %.3f -> %.3f", before, after)
	}
}

func TestCarouselShuffleAlwaysReachesSelection(t *testing.T) {
	e := NewCarouselEngine()

	e.StartShuffle()
	if e.State() != CarouselSpinning {
		t.Fatalf("expected spinning after StartShuffle, got %s", e.State())
	}

	// 任意旋转一段时间后停牌
	for i := 0; i < 37; i++ {
		e.Tick(1.0 / 60.0)
	}
	e.StopShuffle()
	if e.State() != CarouselStopping {
		t.Fatalf("expected stopping after StopShuffle, got %s", e.State())
	}

	runUntil(t, e, 2000, func() bool { return e.State() == CarouselSelection })

	remainder := math.Mod(e.Rotation(), 30)
	if math.Abs(remainder) > 1e-9 && math.Abs(remainder-30) > 1e-9 {
		t.Fatalf("final angle %.4f is not a multiple of 30 degrees", e.Rotation())
	}
}

func TestCarouselCandidatesAreThreeAdjacentIndices(t *testing.T) {
	e := NewCarouselEngine()
	e.StartShuffle()
	for i := 0; i < 61; i++ {
		e.Tick(1.0 / 60.0)
	}
	e.StopShuffle()
	runUntil(t, e, 2000, func() bool { return e.State() == CarouselSelection })

	candidates := e.Candidates()
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %v", candidates)
	}

	seen := make(map[int]bool)
	for _, idx := range candidates {
		if idx < 0 || idx >= 12 {
			t.Fatalf("candidate %d out of range", idx)
		}
		if seen[idx] {
			t.Fatalf("duplicate candidate in %v", candidates)
		}
		seen[idx] = true
	}

	center := e.CenterIndex()
	if !seen[center] {
		t.Fatalf("candidates %v must contain center index %d", candidates, center)
	}
	if candidates[1] != center {
		t.Fatalf("center should sit in the middle of %v, got center=%d", candidates, center)
	}
}

func TestCarouselRestartClearsSnapTarget(t *testing.T) {
	e := NewCarouselEngine()
	e.StartShuffle()
	e.Tick(0.5)
	e.StopShuffle()
	runUntil(t, e, 2000, func() bool { return e.State() == CarouselSelection })

	// selection 中不允许直接重新洗牌
	e.StartShuffle()
	if e.State() != CarouselSelection {
		t.Fatalf("StartShuffle from selection must be ignored, got %s", e.State())
	}

	e.Reset()
	if e.State() != CarouselIdle || e.Rotation() != 0 {
		t.Fatalf("reset should return to idle at angle 0, got %s %.2f", e.State(), e.Rotation())
	}
	if e.snapTarget != nil {
		t.Fatalf("reset must clear cached snap target")
	}

	e.StartShuffle()
	if e.State() != CarouselSpinning {
		t.Fatalf("expected spinning after reset+StartShuffle, got %s", e.State())
	}
}

func TestCarouselTickFrameRateIndependent(t *testing.T) {
	fine := NewCarouselEngine()
	coarse := NewCarouselEngine()
	fine.StartShuffle()
	coarse.StartShuffle()

	// 相同的总时长，不同的切片粒度，结果应一致（固定步长积分）
	for i := 0; i < 12; i++ {
		fine.Tick(1.0 / 120.0)
	}
	coarse.Tick(0.1)

	if math.Abs(fine.Rotation()-coarse.Rotation()) > 1e-9 {
		t.Fatalf("rotation diverged: fine=%.4f coarse=%.4f", fine.Rotation(), coarse.Rotation())
	}
}

func TestCarouselCandidatesEmptyOutsideSelection(t *testing.T) {
	e := NewCarouselEngine()
	if e.Candidates() != nil {
		t.Fatalf("idle engine should expose no candidates")
	}
	if e.CenterIndex() != -1 {
		t.Fatalf("center index should be -1 outside selection")
	}
	if e.IsCandidate(0) {
		t.Fatalf("no index can be a candidate outside selection")
	}
}
