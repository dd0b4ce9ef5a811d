package view

// EnergyLabel 把 0-100 的能量值映射为展示用的档位名称。
func EnergyLabel(level int) string {
	switch {
	case level < 20:
		return "低潮 · Ebb"
	case level < 40:
		return "蓄力 · Gathering"
	case level < 60:
		return "平稳 · Flow"
	case level < 80:
		return "高涨 · Surge"
	default:
		return "满盈 · Overflow"
	}
}
