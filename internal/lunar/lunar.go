package lunar

import "time"

// Phase 表示八种离散月相之一。
type Phase string

const (
	PhaseNew            Phase = "New Moon"
	PhaseWaxingCrescent Phase = "Waxing Crescent"
	PhaseFirstQuarter   Phase = "First Quarter"
	PhaseWaxingGibbous  Phase = "Waxing Gibbous"
	PhaseFull           Phase = "Full Moon"
	PhaseWaningGibbous  Phase = "Waning Gibbous"
	PhaseLastQuarter    Phase = "Last Quarter"
	PhaseWaningCrescent Phase = "Waning Crescent"
)

// synodicSeconds 为朔望月长度（约 29.53059 天），单位秒。
const synodicSeconds = 2551443

// PhaseInfo 描述月相的中文展示信息。
type PhaseInfo struct {
	CnName   string `json:"cn_name"`
	Blessing string `json:"blessing"`
	Tip      string `json:"tip"`
}

// Calculate 根据日历日期计算近似月相。
// 参考新月：2000-01-06 12:24（本地时间）。日期统一归一到当日正午，
// 避免时区与日界附近的跳变；同一日历日期的结果保持稳定。
func Calculate(date time.Time) Phase {
	ref := time.Date(2000, time.January, 6, 12, 24, 0, 0, date.Location())
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, date.Location())

	diff := noon.Unix() - ref.Unix()
	phaseSecs := diff % synodicSeconds
	if phaseSecs < 0 {
		phaseSecs += synodicSeconds
	}
	ratio := float64(phaseSecs) / float64(synodicSeconds)

	// 以 0 / 0.25 / 0.5 / 0.75 为新月、上弦、满月、下弦的中心划分八段
	switch {
	case ratio < 0.06 || ratio >= 0.94:
		return PhaseNew
	case ratio < 0.19:
		return PhaseWaxingCrescent
	case ratio < 0.31:
		return PhaseFirstQuarter
	case ratio < 0.44:
		return PhaseWaxingGibbous
	case ratio < 0.56:
		return PhaseFull
	case ratio < 0.69:
		return PhaseWaningGibbous
	case ratio < 0.81:
		return PhaseLastQuarter
	default:
		return PhaseWaningCrescent
	}
}

// phaseOrder 按照月相循环顺序排列，用于展示与相邻性判断。
var phaseOrder = []Phase{
	PhaseNew,
	PhaseWaxingCrescent,
	PhaseFirstQuarter,
	PhaseWaxingGibbous,
	PhaseFull,
	PhaseWaningGibbous,
	PhaseLastQuarter,
	PhaseWaningCrescent,
}

// Index 返回月相在循环中的序号（0-7），未知月相返回 -1。
func Index(p Phase) int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

var phaseInfos = map[Phase]PhaseInfo{
	PhaseNew: {
		CnName:   "新月",
		Blessing: "在黑暗中播种，万物皆有可能。",
		Tip:      "适合开启新计划、设定意图，避免过度消耗。",
	},
	PhaseWaxingCrescent: {
		CnName:   "眉月",
		Blessing: "微光初现，希望正在萌芽。",
		Tip:      "收集信息，为你的计划注入第一波行动力。",
	},
	PhaseFirstQuarter: {
		CnName:   "上弦月",
		Blessing: "在张力中寻找平衡与突破。",
		Tip:      "可能会遇到挑战，这是宇宙在测试你的决心。",
	},
	PhaseWaxingGibbous: {
		CnName:   "盈凸月",
		Blessing: "能量充盈，接近圆满。",
		Tip:      "微调你的方向，在此刻全力以赴。",
	},
	PhaseFull: {
		CnName:   "满月",
		Blessing: "光芒万丈，看见真实的自我。",
		Tip:      "情绪可能高涨，适合进行满月释放仪式，感恩收获。",
	},
	PhaseWaningGibbous: {
		CnName:   "亏凸月",
		Blessing: "分享智慧，回馈世界。",
		Tip:      "开始整理与回顾，将学到的经验分享给他人。",
	},
	PhaseLastQuarter: {
		CnName:   "下弦月",
		Blessing: "释放不再服务于你的事物。",
		Tip:      "断舍离的最佳时机，放下包袱，为下一次循环做准备。",
	},
	PhaseWaningCrescent: {
		CnName:   "残月",
		Blessing: "在静谧中休养生息，回归虚空。",
		Tip:      "深度休息，进行冥想，清理身心空间。",
	},
}

// Info 返回月相的中文展示信息，未知月相回退为新月。
func Info(p Phase) PhaseInfo {
	if info, ok := phaseInfos[p]; ok {
		return info
	}
	return phaseInfos[PhaseNew]
}
