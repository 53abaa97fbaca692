package telegram

import (
	"fmt"
	"strings"

	"golang-fii-analyzer/internal/entity"
)

// FormatAlertTriggerForTelegram formats a triggered alert into a Markdown
// message for Telegram.
func FormatAlertTriggerForTelegram(trigger entity.AlertTrigger) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%s *FII Alert Triggered!*\n\n", alertEmoji(trigger.Alert.Type)))
	builder.WriteString(trigger.Message + "\n\n")
	builder.WriteString("📊 *Details:*\n")
	builder.WriteString(fmt.Sprintf("• Fund: `%s`\n", trigger.Alert.Ticker))
	builder.WriteString(fmt.Sprintf("• Type: %s\n", trigger.Alert.Type))
	builder.WriteString(fmt.Sprintf("• Current Value: %.2f\n", trigger.CurrentValue))
	builder.WriteString(fmt.Sprintf("• Condition: %s %.2f\n", trigger.Alert.Condition, trigger.Alert.Value))
	builder.WriteString(fmt.Sprintf("• Triggered At: %s\n", trigger.TriggeredAt.Format("02/01/2006 15:04:05")))
	builder.WriteString(fmt.Sprintf("\n💡 %s", alertHint(trigger)))

	return builder.String()
}

func alertEmoji(alertType entity.AlertType) string {
	switch alertType {
	case entity.AlertTypePrice:
		return "💰"
	case entity.AlertTypeDividendYield:
		return "📈"
	case entity.AlertTypePriceToBook:
		return "📊"
	case entity.AlertTypeScore:
		return "🎯"
	default:
		return "🔔"
	}
}

func alertHint(trigger entity.AlertTrigger) string {
	above := trigger.CurrentValue > trigger.Alert.Value
	switch trigger.Alert.Type {
	case entity.AlertTypePrice:
		if above {
			return "Price above target - consider selling"
		}
		return "Price below target - buying opportunity"
	case entity.AlertTypeDividendYield:
		if above {
			return "High yield - good income opportunity"
		}
		return "Low yield - consider other funds"
	case entity.AlertTypePriceToBook:
		if above {
			return "High P/VP - may be overvalued"
		}
		return "Low P/VP - may be discounted"
	case entity.AlertTypeScore:
		if above {
			return "High score - excellent opportunity"
		}
		return "Low score - avoid this fund"
	default:
		return "Monitor the fund's behavior"
	}
}
