package service

import (
	"math"

	"github.com/moontide/internal/catalog"
)

// CarouselState 表示转盘物理模拟所处的阶段。
type CarouselState string

const (
	CarouselIdle      CarouselState = "idle"
	CarouselSpinning  CarouselState = "spinning"
	CarouselStopping  CarouselState = "stopping"
	CarouselSelection CarouselState = "selection"
)

// 转盘物理参数。模拟按 1/60 秒的固定概念步长推进，
// 因此这些常量的含义与逐帧动画一致。
const (
	carouselStepSeconds   = 1.0 / 60.0
	idleDriftPerStep      = 0.15
	shuffleSpeedPerStep   = 25.0
	stoppingDecayFactor   = 0.96
	snapSpeedThreshold    = 1.5
	snapEaseFraction      = 0.1
	snapEpsilonDegrees    = 0.1
	maxAccumulatedSeconds = 0.25
)

// CarouselEngine 模拟抽牌转盘：匀速空转、高速洗牌、指数减速，
// 最终吸附到离散牌位并给出可选的三张候选牌。
// 引擎由宿主的逐帧回调驱动（Tick），内部把墙钟增量折算成固定步长，
// 暂停后恢复不会积累漂移。非并发安全，由上层会话持锁调用。
type CarouselEngine struct {
	state       CarouselState
	rotation    float64
	speed       float64
	snapTarget  *float64
	accumulated float64
	cardCount   int
}

// NewCarouselEngine 构造一个处于 idle 状态的转盘引擎。
func NewCarouselEngine() *CarouselEngine {
	return &CarouselEngine{
		state:     CarouselIdle,
		cardCount: catalog.CardCount,
	}
}

// State 返回当前阶段。
func (e *CarouselEngine) State() CarouselState {
	return e.state
}

// Rotation 返回当前旋转角度（度，未归一化）。
func (e *CarouselEngine) Rotation() float64 {
	return e.rotation
}

// Reset 回到 idle 状态并清空角度、速度与缓存的吸附目标。
func (e *CarouselEngine) Reset() {
	e.state = CarouselIdle
	e.rotation = 0
	e.speed = 0
	e.snapTarget = nil
	e.accumulated = 0
}

// StartShuffle 进入高速洗牌。重新洗牌总是清空上一轮的吸附目标，
// 只能从 idle（或 Reset 之后）进入，stopping/selection 中的调用被忽略。
func (e *CarouselEngine) StartShuffle() {
	if e.state != CarouselIdle {
		return
	}
	e.state = CarouselSpinning
	e.speed = shuffleSpeedPerStep
	e.snapTarget = nil
}

// StopShuffle 请求停牌，只在 spinning 阶段有效。
func (e *CarouselEngine) StopShuffle() {
	if e.state != CarouselSpinning {
		return
	}
	e.state = CarouselStopping
}

// Tick 按墙钟增量推进模拟。dt 单位为秒；超过 maxAccumulatedSeconds
// 的积压会被丢弃，因此驱动循环暂停再恢复时不会出现追帧突跳。
func (e *CarouselEngine) Tick(dt float64) {
	if dt <= 0 {
		return
	}

	e.accumulated += dt
	if e.accumulated > maxAccumulatedSeconds {
		e.accumulated = maxAccumulatedSeconds
	}

	for e.accumulated >= carouselStepSeconds {
		e.accumulated -= carouselStepSeconds
		e.step()
	}
}

// step 推进一个固定步长。
func (e *CarouselEngine) step() {
	switch e.state {
	case CarouselIdle:
		e.rotation += idleDriftPerStep

	case CarouselSpinning:
		e.rotation += e.speed

	case CarouselStopping:
		e.speed *= stoppingDecayFactor
		if e.speed >= snapSpeedThreshold {
			e.rotation += e.speed
			return
		}

		step := 360.0 / float64(e.cardCount)
		if e.snapTarget == nil {
			target := math.Round(e.rotation/step) * step
			e.snapTarget = &target
		}

		dist := *e.snapTarget - e.rotation
		if math.Abs(dist) < snapEpsilonDegrees {
			e.rotation = *e.snapTarget
			e.speed = 0
			e.state = CarouselSelection
			return
		}
		e.rotation += dist * snapEaseFraction

	case CarouselSelection:
		// 角度冻结，等待用户选牌或重新洗牌
	}
}

// CenterIndex 返回吸附后正对用户的牌位序号；非 selection 阶段返回 -1。
func (e *CarouselEngine) CenterIndex() int {
	if e.state != CarouselSelection {
		return -1
	}

	step := 360.0 / float64(e.cardCount)
	normalized := math.Mod(math.Mod(e.rotation, 360)+360, 360)
	center := int(math.Round((360-normalized)/step)) % e.cardCount
	if center < 0 {
		center += e.cardCount
	}
	return center
}

// Candidates 返回当前可选的三张相邻候选牌序号（含中心牌）。
// 非 selection 阶段返回空集。
func (e *CarouselEngine) Candidates() []int {
	center := e.CenterIndex()
	if center < 0 {
		return nil
	}

	left := (center - 1 + e.cardCount) % e.cardCount
	right := (center + 1) % e.cardCount
	return []int{left, center, right}
}

// IsCandidate 判断序号是否在当前候选集中。
func (e *CarouselEngine) IsCandidate(index int) bool {
	for _, candidate := range e.Candidates() {
		if candidate == index {
			return true
		}
	}
	return false
}
