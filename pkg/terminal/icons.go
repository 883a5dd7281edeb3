package terminal

// Icons for terminal output
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️"
	IconInfo    = "ℹ️"
	IconPython  = "🐍"
	IconBox     = "📦"
	IconRocket  = "🚀"
	IconWatch   = "👀"
	IconArrow   = "→"
	IconDot     = "•"
)
